// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// cifar_loader downloads one of the CIFAR datasets, loads it into memory and prints a summary.
//
// Example:
//
//	cifar_loader -data=~/work/cifar -source=cifar-10 -samples=grid.png
//
// Flags explicitly set take precedence over the values of the -config file.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/gomlx/cifar/pkg/data/cifar"
	"github.com/gomlx/cifar/pkg/support/fsutil"
	"github.com/janpfeifer/must"
	"k8s.io/klog/v2"
)

var (
	flagConfig      = flag.String("config", "", "YAML configuration file. Flags explicitly set override its values.")
	flagDataDir     = flag.String("data", "~/work/cifar", "Directory where the dataset is downloaded and extracted.")
	flagSource      = flag.String("source", cifar.C10Name, "Dataset to load, one of: "+strings.Join(cifar.SourceNames(), ", ")+".")
	flagURL         = flag.String("url", "", "Overrides the URL of the archive, e.g. to use a mirror.")
	flagTimeout     = flag.Duration("timeout", 0, "Timeout for the download. 0 means no timeout.")
	flagProgress    = flag.Bool("progress", true, "Display a progress bar while downloading.")
	flagDownload    = flag.Bool("download", true, "Download the dataset if it is not in the data directory yet.")
	flagTrain       = flag.Bool("train", true, "Load the training data.")
	flagTest        = flag.Bool("test", true, "Load the test data.")
	flagSamples     = flag.String("samples", "", "If set, saves a grid of sample training (or test) images to this file, e.g. \"samples.png\".")
	flagNumSamples  = flag.Int("num_samples", 32, "Number of images saved with -samples.")
	flagSampleCols  = flag.Int("sample_cols", 8, "Number of columns of the -samples grid.")
	flagSampleScale = flag.Int("sample_scale", 2, "How many times each image is enlarged in the -samples grid.")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()
	cfg := must.M1(buildConfig())
	loader := must.M1(cifar.NewLoader(cfg))

	if *flagDownload {
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
		defer cancel()
		must.M(loader.Fetch(ctx))
	} else if !fsutil.MustFileExists(loader.Dir()) {
		klog.Exitf("Dataset not found in %q, run without -download=false to fetch it", loader.Dir())
	}

	names := must.M1(loader.LoadClassNames())
	var train, test *cifar.Dataset
	if *flagTrain {
		start := time.Now()
		train = must.M1(loader.LoadTrainingData())
		must.M(train.Validate())
		klog.Infof("Training data loaded in %s", time.Since(start))
	}
	if *flagTest {
		start := time.Now()
		test = must.M1(loader.LoadTestData())
		must.M(test.Validate())
		klog.Infof("Test data loaded in %s", time.Since(start))
	}

	printSummary(loader, train, test)
	printClasses(names, train, test)

	if *flagSamples != "" {
		samples := train
		if samples == nil {
			samples = test
		}
		if samples == nil {
			klog.Errorf("-samples requires -train or -test")
			os.Exit(1)
		}
		must.M(cifar.SaveGrid(*flagSamples, samples.Images, *flagNumSamples, *flagSampleCols, *flagSampleScale))
		fmt.Printf("Saved %d sample images to %q\n", min(*flagNumSamples, samples.NumImages()), *flagSamples)
	}
}

// buildConfig reads the -config file, if given, and overlays the flags explicitly set.
// Without a -config file, the defaults of the -source are used.
func buildConfig() (*cifar.Config, error) {
	setFlags := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { setFlags[f.Name] = true })

	var cfg *cifar.Config
	var err error
	if *flagConfig != "" {
		cfg, err = cifar.LoadConfig(*flagConfig)
		if err != nil {
			return nil, err
		}
		if setFlags["source"] && *flagSource != cfg.Source {
			klog.Warningf("-source=%s overrides source %q of %q: its geometry, url and checksum are replaced by the %s defaults",
				*flagSource, cfg.Source, *flagConfig, *flagSource)
			if cfg, err = switchSource(cfg, *flagSource); err != nil {
				return nil, err
			}
		}
		if cfg.DataDir == "" || setFlags["data"] {
			cfg.DataDir = *flagDataDir
		}
	} else {
		if cfg, err = cifar.ConfigForSource(*flagSource, *flagDataDir); err != nil {
			return nil, err
		}
		cfg.ShowProgress = *flagProgress
	}
	if setFlags["url"] {
		cfg.URL = *flagURL
	}
	if setFlags["timeout"] {
		cfg.DownloadTimeout = *flagTimeout
	}
	if setFlags["progress"] {
		cfg.ShowProgress = *flagProgress
	}
	return cfg, nil
}

// switchSource returns the configuration for the source name, keeping the values of cfg that don't
// depend on the source: the data directory and the download settings.
// The URL and checksum refer to the archive of the previous source, and are reset.
func switchSource(cfg *cifar.Config, name string) (*cifar.Config, error) {
	newCfg, err := cifar.ConfigForSource(name, cfg.DataDir)
	if err != nil {
		return nil, err
	}
	newCfg.ShowProgress = cfg.ShowProgress
	newCfg.DownloadTimeout = cfg.DownloadTimeout
	return newCfg, nil
}
