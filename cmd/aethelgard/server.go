package main

import (
	"bytes"
	"encoding/json"
	"image"
	"image/png"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/spf13/cobra"

	aethelgard "github.com/gomgom50/Aethelgard-map-generator-sub001"
)

var worldmap *aethelgard.Map

var flagAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve map tiles and a pipeline control API over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := buildMap()
		if err != nil {
			return err
		}
		worldmap = m

		router := mux.NewRouter()
		router.HandleFunc("/tiles/{z}/{x}/{y}", tileHandler)
		router.HandleFunc("/tile/{id}", tileInfoHandler)
		router.HandleFunc("/at/{lat}/{lon}", tileAtHandler)
		router.HandleFunc("/geojson_borders", geoJSONBorderHandler)
		router.HandleFunc("/geojson_features", geoJSONFeaturesHandler)
		router.HandleFunc("/pipeline", pipelineStatusHandler).Methods("GET")
		router.HandleFunc("/pipeline/step", pipelineStepHandler).Methods("POST")
		router.HandleFunc("/pipeline/reset", pipelineResetHandler).Methods("POST")
		router.HandleFunc("/pipeline/stage/{name}", pipelineStageHandler).Methods("POST")
		router.HandleFunc("/stamp", stampHandler).Methods("POST")
		router.HandleFunc("/stamp/undo", stampUndoHandler).Methods("POST")
		log.Printf("listening on %s", flagAddr)
		return http.ListenAndServe(flagAddr, router)
	},
}

func init() {
	serveCmd.Flags().StringVar(&flagAddr, "addr", ":3333", "listen address")
}

func tileHandler(res http.ResponseWriter, req *http.Request) {
	d := req.URL.Query().Get("d")
	if d == "" {
		d = "0"
	}
	displayMode, err := strconv.Atoi(d)
	if err != nil {
		http.Error(res, err.Error(), http.StatusBadRequest)
		return
	}

	vars := mux.Vars(req)
	tileX, err := strconv.Atoi(vars["x"])
	if err != nil {
		http.Error(res, err.Error(), http.StatusBadRequest)
		return
	}
	tileY, err := strconv.Atoi(vars["y"])
	if err != nil {
		http.Error(res, err.Error(), http.StatusBadRequest)
		return
	}
	tileZ, err := strconv.Atoi(vars["z"])
	if err != nil {
		http.Error(res, err.Error(), http.StatusBadRequest)
		return
	}

	img := worldmap.GetTile(tileX, tileY, tileZ, aethelgard.DisplayMode(displayMode))
	writeImage(res, &img)
}

func tileInfoHandler(res http.ResponseWriter, req *http.Request) {
	id, err := strconv.Atoi(mux.Vars(req)["id"])
	if err != nil {
		http.Error(res, err.Error(), http.StatusBadRequest)
		return
	}
	tile, err := worldmap.Tile(id)
	if err != nil {
		http.Error(res, err.Error(), http.StatusNotFound)
		return
	}
	writeJSON(res, tile)
}

func tileAtHandler(res http.ResponseWriter, req *http.Request) {
	vars := mux.Vars(req)
	lat, err := strconv.ParseFloat(vars["lat"], 64)
	if err != nil {
		http.Error(res, err.Error(), http.StatusBadRequest)
		return
	}
	lon, err := strconv.ParseFloat(vars["lon"], 64)
	if err != nil {
		http.Error(res, err.Error(), http.StatusBadRequest)
		return
	}
	tile, err := worldmap.Tile(worldmap.Sphere.NearestTile(lat, lon))
	if err != nil {
		http.Error(res, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(res, tile)
}

func geoJSONBorderHandler(res http.ResponseWriter, req *http.Request) {
	data, err := worldmap.GetGeoJSONPlateBorders()
	if err != nil {
		http.Error(res, err.Error(), http.StatusInternalServerError)
		return
	}
	res.Header().Set("Content-Type", "application/json")
	res.Header().Set("Content-Length", strconv.Itoa(len(data)))
	res.Write(data)
}

func geoJSONFeaturesHandler(res http.ResponseWriter, req *http.Request) {
	data, err := worldmap.GetGeoJSONFeatures()
	if err != nil {
		http.Error(res, err.Error(), http.StatusInternalServerError)
		return
	}
	res.Header().Set("Content-Type", "application/json")
	res.Header().Set("Content-Length", strconv.Itoa(len(data)))
	res.Write(data)
}

// stageStatus is the JSON shape of one pipeline stage.
type stageStatus struct {
	Name     string  `json:"name"`
	Status   string  `json:"status"`
	Progress float64 `json:"progress"`
}

func pipelineStatusHandler(res http.ResponseWriter, req *http.Request) {
	p := worldmap.Pipeline
	stages := make([]stageStatus, 0, len(p.Stages()))
	for _, s := range p.Stages() {
		stages = append(stages, stageStatus{
			Name:     s.Name,
			Status:   s.Status(),
			Progress: s.Progress(),
		})
	}
	writeJSON(res, map[string]interface{}{
		"state":  p.State().String(),
		"cursor": p.Cursor(),
		"stages": stages,
	})
}

func pipelineStepHandler(res http.ResponseWriter, req *http.Request) {
	if err := worldmap.Pipeline.Step(); err != nil {
		http.Error(res, err.Error(), http.StatusInternalServerError)
		return
	}
	pipelineStatusHandler(res, req)
}

func pipelineResetHandler(res http.ResponseWriter, req *http.Request) {
	worldmap.Pipeline.Reset()
	pipelineStatusHandler(res, req)
}

func pipelineStageHandler(res http.ResponseWriter, req *http.Request) {
	if err := worldmap.Pipeline.RunStage(mux.Vars(req)["name"]); err != nil {
		http.Error(res, err.Error(), http.StatusBadRequest)
		return
	}
	pipelineStatusHandler(res, req)
}

func stampHandler(res http.ResponseWriter, req *http.Request) {
	var st aethelgard.Stamp
	if err := json.NewDecoder(req.Body).Decode(&st); err != nil {
		http.Error(res, err.Error(), http.StatusBadRequest)
		return
	}
	written, err := worldmap.ApplyStamp(&st)
	if err != nil {
		http.Error(res, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(res, map[string]int{"written": written})
}

func stampUndoHandler(res http.ResponseWriter, req *http.Request) {
	writeJSON(res, map[string]bool{"undone": worldmap.UndoLastStamp()})
}

func writeJSON(res http.ResponseWriter, v interface{}) {
	res.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(res).Encode(v); err != nil {
		log.Println("unable to encode response.")
	}
}

// writeImage writes the image to the response writer.
func writeImage(w http.ResponseWriter, img *image.Image) {
	buffer := new(bytes.Buffer)
	if err := png.Encode(buffer, *img); err != nil {
		log.Println("unable to encode image.")
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(buffer.Bytes())))
	if _, err := w.Write(buffer.Bytes()); err != nil {
		log.Println("unable to write image.")
	}
}
