// Command ksvd learns a sparse-coding dictionary from a CSV file and codes
// new samples against it.
//
//	ksvd fit -config ksvd.toml -in train.csv -out model.json [-cpuprofile dir] [-plot errors.png]
//	ksvd transform -model model.json -in samples.csv [-out codes.csv] [-parallel]
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/cpuid/v2"
	"github.com/pkg/errors"
	"github.com/pkg/profile"
	"go.uber.org/zap"

	"github.com/reggo/ksvd"
	"github.com/reggo/ksvd/config"
	"github.com/reggo/ksvd/convergence"
	"github.com/reggo/ksvd/dataio"
	"github.com/reggo/ksvd/linalg"
	"github.com/reggo/ksvd/logutil"
)

const usage = `usage:
  ksvd fit -config ksvd.toml -in train.csv -out model.json [-cpuprofile dir] [-plot errors.png]
  ksvd transform -model model.json -in samples.csv [-out codes.csv] [-parallel]
`

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "ksvd:", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return errors.New("missing command")
	}
	switch args[0] {
	case "fit":
		return fit(args[1:], stdout, stderr)
	case "transform":
		return transform(args[1:], stdout, stderr)
	case "help", "-h", "-help":
		fmt.Fprint(stdout, usage)
		return nil
	}
	fmt.Fprint(stderr, usage)
	return errors.Errorf("unknown command %q", args[0])
}

func fit(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("fit", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "TOML configuration file")
	in := fs.String("in", "", "training samples, CSV")
	out := fs.String("out", "model.json", "where to write the fitted model")
	cpuprofile := fs.String("cpuprofile", "", "write a CPU profile to this directory")
	plotPath := fs.String("plot", "", "write a plot of the error per iteration (.png, .svg, .pdf)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *configPath == "" || *in == "" {
		return errors.New("fit: -config and -in are required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	logger, err := logutil.New(cfg.Log)
	if err != nil {
		return err
	}
	defer logger.Sync()
	logger.Debug("host",
		zap.String("cpu", cpuid.CPU.BrandName),
		zap.Int("cores", cpuid.CPU.PhysicalCores),
		zap.Int("threads", cpuid.CPU.LogicalCores),
		zap.Bool("avx2", cpuid.CPU.Supports(cpuid.AVX2)),
		zap.Bool("fma", cpuid.CPU.Supports(cpuid.FMA3)),
	)

	if *cpuprofile != "" {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(*cpuprofile), profile.Quiet, profile.NoShutdownHook).Stop()
	}

	data, err := dataio.ReadFile(*in)
	if err != nil {
		return err
	}
	scaler, err := cfg.Scaler()
	if err != nil {
		return err
	}
	losser, err := cfg.Losser()
	if err != nil {
		return err
	}
	model, err := ksvd.New(cfg.Model.NumComponents, append(cfg.Options(), ksvd.WithLogger(logger))...)
	if err != nil {
		return err
	}

	pipeline := ksvd.NewPipeline(scaler, model)
	if _, err := pipeline.Fit(data); err != nil {
		return errors.Wrap(err, "fit")
	}

	score, err := pipeline.Score(data, losser)
	if err != nil {
		return errors.Wrap(err, "score")
	}
	report := model.Report()
	logger.Info("model fitted",
		zap.Int("samples", data.RawMatrix().Rows),
		zap.Int("features", model.NumFeatures()),
		zap.Int("components", model.NumComponents()),
		zap.Int("iterations", report.Iterations),
		zap.Int("skipped_atoms", report.SkippedAtoms),
		zap.String("loss", cfg.Preprocess.Loss),
		zap.Float64("score", score),
	)

	if err := writeJSON(*out, pipeline); err != nil {
		return err
	}
	if *plotPath != "" && report.Iterations > 0 {
		if err := convergence.Save(report, *plotPath); err != nil {
			return err
		}
	}
	fmt.Fprintf(stdout, "fitted %d atoms in %d iterations, %s loss %g, wrote %s\n",
		model.NumComponents(), report.Iterations, cfg.Preprocess.Loss, score, *out)
	return nil
}

func transform(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("transform", flag.ContinueOnError)
	fs.SetOutput(stderr)
	modelPath := fs.String("model", "", "model written by fit")
	in := fs.String("in", "", "samples to code, CSV")
	out := fs.String("out", "", "where to write the codes, CSV (default stdout)")
	parallel := fs.Bool("parallel", false, "code samples on all CPUs")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *modelPath == "" || *in == "" {
		return errors.New("transform: -model and -in are required")
	}

	b, err := os.ReadFile(*modelPath)
	if err != nil {
		return errors.Wrap(err, "transform")
	}
	pipeline := &ksvd.Pipeline{}
	if err := json.Unmarshal(b, pipeline); err != nil {
		return errors.Wrapf(err, "transform: decoding %s", *modelPath)
	}
	if *parallel {
		pipeline.Model.SetBackend(linalg.Gonum{Parallel: true})
	}
	data, err := dataio.ReadFile(*in)
	if err != nil {
		return err
	}
	codes, err := pipeline.Transform(data)
	if err != nil {
		return errors.Wrap(err, "transform")
	}
	if *out == "" {
		return dataio.WriteCSV(stdout, codes)
	}
	return dataio.WriteFile(*out, codes)
}

func writeJSON(path string, v interface{}) error {
	b, err := json.MarshalIndent(v, "", "\t")
	if err != nil {
		return errors.Wrap(err, "encoding model")
	}
	return errors.Wrap(os.WriteFile(path, b, 0o644), "writing model")
}
