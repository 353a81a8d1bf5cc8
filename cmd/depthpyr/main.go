package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"depthpyr/pkg/config"
	"depthpyr/pkg/convolve"
	"depthpyr/pkg/depthio"
	"depthpyr/pkg/filterbank"
	"depthpyr/pkg/pyramid"
	"depthpyr/pkg/visualization"
	"depthpyr/pkg/volume"
)

func main() {
	// Parse command line arguments
	imagePath := flag.String("image", "", "Input grayscale image (png, jpeg, tiff or webp)")
	depthPath := flag.String("depth", "", "Per-pixel depth map image")
	configPath := flag.String("config", "depthpyr.yaml", "YAML configuration file")
	saveConfig := flag.Bool("save-config", false, "Write the default configuration to -config and exit")
	height := flag.Int("height", -1, "Pyramid height (-1: maximum supported by the input)")
	orients := flag.Int("orients", 4, "Number of oriented band filters")
	complexBank := flag.Bool("complex", false, "Use the complex-valued oriented bank")
	dMin := flag.Float64("dmin", 0, "Nearest depth covered by the volume")
	dMax := flag.Float64("dmax", 1, "Farthest depth covered by the volume")
	dSigma := flag.Float64("dsigma", 0.1, "Depth bin width and smoothing bandwidth")
	edges := flag.String("edges", "reflect1", "Border rule: reflect1, reflect2, repeat, zero or circular")
	numCores := flag.Int("cores", 0, "Number of CPU cores to use (0: all available)")
	saveBands := flag.Bool("save-bands", false, "Save band and depth-map images after the build")
	bandsDir := flag.String("bands-dir", "", "Directory for band images (default from config)")
	flag.Parse()

	if *saveConfig {
		if err := config.CreateDefaultConfigFile(*configPath); err != nil {
			log.Fatalf("Failed to write configuration: %v", err)
		}
		fmt.Printf("Default configuration written to %s\n", *configPath)
		return
	}

	// Load configuration, then let explicitly set flags override it
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "height":
			cfg.Pyramid.Height = *height
		case "orients":
			cfg.Pyramid.Orientations = *orients
		case "complex":
			cfg.Pyramid.Complex = *complexBank
		case "dmin":
			cfg.Depth.Min = *dMin
		case "dmax":
			cfg.Depth.Max = *dMax
		case "dsigma":
			cfg.Depth.Sigma = *dSigma
		case "edges":
			cfg.Pyramid.Edges = *edges
		case "cores":
			cfg.Processing.NumCores = *numCores
		case "save-bands":
			cfg.Output.SaveBands = *saveBands
		case "bands-dir":
			cfg.Output.BandsDir = *bandsDir
		}
	})

	// Validate inputs
	if *imagePath == "" || *depthPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	edge, err := convolve.ParseEdge(cfg.Pyramid.Edges)
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	fmt.Println("================================")
	fmt.Println("BILATERAL STEERABLE PYRAMID")
	fmt.Println("================================")

	// Load the image and align the depth map to its pixel grid
	verbose := cfg.Output.Verbose
	if verbose {
		fmt.Printf("Loading image from %s...\n", *imagePath)
	}
	img, err := depthio.LoadImage(*imagePath)
	if err != nil {
		log.Fatalf("Failed to load image: %v", err)
	}

	if verbose {
		fmt.Printf("Loading depth map from %s...\n", *depthPath)
	}
	depthMap, err := depthio.LoadAlignedDepthMap(*depthPath, img.Rows, img.Cols, depthio.DepthOptions{
		ZeroMeansMissing: cfg.Depth.ZeroMeansMissing,
		Scale:            cfg.Depth.Scale,
		Offset:           cfg.Depth.Offset,
	})
	if err != nil {
		log.Fatalf("Failed to load depth map: %v", err)
	}

	// Build the filter bank
	var bank *filterbank.Bank
	if cfg.Pyramid.Complex {
		bank, err = filterbank.ComplexSteerable(cfg.Pyramid.Orientations, cfg.Pyramid.FilterSize, cfg.Pyramid.FilterSigma)
	} else {
		bank, err = filterbank.Steerable(cfg.Pyramid.Orientations, cfg.Pyramid.FilterSize, cfg.Pyramid.FilterSigma)
	}
	if err != nil {
		log.Fatalf("Failed to build filter bank: %v", err)
	}

	depthParams := volume.DepthParams{Min: cfg.Depth.Min, Max: cfg.Depth.Max, Sigma: cfg.Depth.Sigma}

	fmt.Println("Starting decomposition...")
	startTime := time.Now()

	// Scatter the image into depth bins
	if verbose {
		fmt.Printf("Scattering %dx%d pixels into %d depth bins...\n", img.Rows, img.Cols, depthParams.Bins())
	}
	vol, err := volume.Scatter(img.Data, depthMap.Data, img.Rows, img.Cols, depthParams)
	if err != nil {
		log.Fatalf("Scatter failed: %v", err)
	}

	// Fill unobserved voxels
	if verbose {
		fmt.Println("Densifying the volume (spatial and depth smoothing)...")
	}
	vol.Densify(volume.SmoothingParams{
		SpatialSpread: cfg.Smoothing.SpatialSpread,
		SpatialNu:     cfg.Smoothing.SpatialNu,
		SpatialRadius: cfg.Smoothing.SpatialRadius,
		DepthSigma:    cfg.Smoothing.DepthSigma,
	})

	// Run the pyramid recursion
	if verbose {
		maxHeight := filterbank.MaxHeight(vol.Rows, vol.Cols, bank)
		fmt.Printf("Building the pyramid (height %d, maximum %d, %d orientations)...\n",
			cfg.Pyramid.Height, maxHeight, bank.Orientations())
	}
	p, err := pyramid.Build(vol, bank, pyramid.Params{
		Height:  cfg.Pyramid.Height,
		Depth:   depthParams,
		Edge:    edge,
		Workers: cfg.Processing.NumCores,
	})
	if err != nil {
		log.Fatalf("Pyramid build failed: %v", err)
	}
	processingTime := time.Since(startTime)

	fmt.Printf("\nDecomposition completed in %.2f seconds\n", processingTime.Seconds())
	fmt.Printf("Coefficients: %d samples across %d bands (complex: %v)\n",
		len(p.Coeffs), p.NumBands(), p.Complex())
	fmt.Printf("Depth bins: %d covering [%.3f, %.3f]\n",
		p.Depth(), p.DepthCenters[0], p.DepthCenters[len(p.DepthCenters)-1])

	fmt.Println("\nBand summary:")
	fmt.Println("=============")
	fmt.Printf("%4s  %16s  %10s\n", "band", "shape", "offset")
	for i, size := range p.BandSizes {
		start, _ := p.BandRange(i)
		fmt.Printf("%4d  %8dx%dx%d  %10d\n", i, size.Rows, size.Cols, size.Depth, start)
	}

	// Export band images if requested
	if cfg.Output.SaveBands {
		fmt.Printf("\nSaving band images to %s...\n", cfg.Output.BandsDir)
		viewer := visualization.NewViewer(p)
		if err := viewer.SaveBandImages(cfg.Output.BandsDir); err != nil {
			log.Printf("Warning: failed to save band images: %v", err)
		}
		if err := viewer.SaveLevelDepthMaps(cfg.Output.BandsDir); err != nil {
			log.Printf("Warning: failed to save depth maps: %v", err)
		}
		fmt.Println("Band export completed")
	}
}
