package main

import (
	"fmt"
	"log"
	"os"
	"runtime/pprof"
	"time"

	"github.com/spf13/cobra"

	aethelgard "github.com/gomgom50/Aethelgard-map-generator-sub001"
)

var (
	flagSeed       int64
	flagResolution int
	flagPlates     int
	flagConfig     string
)

var rootCmd = &cobra.Command{
	Use:   "aethelgard",
	Short: "Procedural planet surface generator",
	Long: `Generates planet surfaces on a spherical hex tile grid: tectonic
plates, boundary mountains and rifts, crust age, biomes. Use "generate"
for one-shot exports or "serve" to explore the world in a browser.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().Int64Var(&flagSeed, "seed", 12345, "the world seed")
	rootCmd.PersistentFlags().IntVar(&flagResolution, "resolution", 0, "subdivisions per icosahedron edge (0 = config default)")
	rootCmd.PersistentFlags().IntVar(&flagPlates, "plates", 0, "number of tectonic plates (0 = config default)")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to a YAML config file")
	rootCmd.AddCommand(generateCmd, serveCmd)
}

// buildMap assembles the config from flags and runs the full pipeline.
func buildMap() (*aethelgard.Map, error) {
	cfg := aethelgard.NewConfig()
	if flagConfig != "" {
		var err error
		if cfg, err = aethelgard.LoadConfig(flagConfig); err != nil {
			return nil, err
		}
	}
	if flagResolution > 0 {
		cfg.Resolution = flagResolution
	}
	if flagPlates > 0 {
		cfg.Plates.Count = flagPlates
	}

	m, err := aethelgard.NewMap(flagSeed, cfg)
	if err != nil {
		return nil, err
	}
	m.Pipeline.OnStageComplete(func(name string) {
		log.Printf("stage %q done", name)
	})

	start := time.Now()
	if err := m.Generate(); err != nil {
		return nil, err
	}
	log.Printf("generated %d tiles, %d plates in %v",
		m.Sphere.NumTiles, len(m.Plates), time.Since(start))
	return m, nil
}

var (
	flagOut        string
	flagMode       int
	flagGeoJSON    string
	flagCPUProfile string
	flagMemProfile string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a world and export it as PNG and/or GeoJSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		if flagCPUProfile != "" {
			f, err := os.Create(flagCPUProfile)
			if err != nil {
				return err
			}
			pprof.StartCPUProfile(f)
			defer pprof.StopCPUProfile()
		}
		m, err := buildMap()
		if err != nil {
			return err
		}
		if flagOut != "" {
			if err := m.ExportPNG(flagOut, aethelgard.DisplayMode(flagMode)); err != nil {
				return err
			}
			log.Printf("wrote %s", flagOut)
		}
		if flagGeoJSON != "" {
			data, err := m.GetGeoJSONPlateBorders()
			if err != nil {
				return err
			}
			if err := os.WriteFile(flagGeoJSON, data, 0644); err != nil {
				return err
			}
			log.Printf("wrote %s", flagGeoJSON)
		}
		if flagOut == "" && flagGeoJSON == "" {
			return fmt.Errorf("nothing to do, pass --out and/or --geojson")
		}
		if flagMemProfile != "" {
			f, err := os.Create(flagMemProfile)
			if err != nil {
				return err
			}
			defer f.Close()
			return pprof.WriteHeapProfile(f)
		}
		return nil
	},
}

func init() {
	generateCmd.Flags().StringVar(&flagOut, "out", "map.png", "output PNG path")
	generateCmd.Flags().IntVar(&flagMode, "mode", 0, "display mode (0 elevation, 1 plates, 2 crust age, 3 biomes, 4 microplates)")
	generateCmd.Flags().StringVar(&flagGeoJSON, "geojson", "", "write plate borders as GeoJSON to this path")
	generateCmd.Flags().StringVar(&flagCPUProfile, "cpuprofile", "", "write cpu profile to file")
	generateCmd.Flags().StringVar(&flagMemProfile, "memprofile", "", "write memory profile to this file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
