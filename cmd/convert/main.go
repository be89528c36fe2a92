// Command convert runs a one-shot conversion batch from the command
// line, without the HTTP service.
//
//	convert -from heic -to jpeg -out ./out photo1.heic photo2.heic
//	convert -list
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"media-converter/internal/codec"
	"media-converter/internal/converter"
	"media-converter/internal/logging"
)

func main() {
	from := flag.String("from", "", "input format tag (e.g. heic, png, wav)")
	to := flag.String("to", "", "output format tag (e.g. jpeg, webp, png)")
	outDir := flag.String("out", ".", "directory converted files are written to")
	list := flag.Bool("list", false, "list format capabilities and exit")
	timeout := flag.Duration("timeout", 5*time.Minute, "overall conversion timeout")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	imageRT, err := codec.NewVipsRuntime()
	if err != nil {
		logging.Fatal("failed to initialize image runtime: %v", err)
	}
	defer codec.ShutdownVips()
	audioRT := codec.NewAudioContext()

	registry := converter.NewDefaultRegistry(imageRT, audioRT)
	if err := registry.ProbeAll(ctx); err != nil {
		logging.Fatal("capability probing failed: %v", err)
	}

	if *list {
		printCapabilities(registry)
		return
	}

	if *from == "" || *to == "" || flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: convert -from <tag> -to <tag> [-out <dir>] <file>...")
		os.Exit(2)
	}

	files := make([]converter.File, 0, flag.NArg())
	for _, path := range flag.Args() {
		data, err := os.ReadFile(path) // #nosec G304 -- user-supplied input path
		if err != nil {
			logging.Fatal("failed to read %s: %v", path, err)
		}
		files = append(files, converter.File{Name: filepath.Base(path), Data: data})
	}

	outputs, unitName, err := registry.Convert(ctx, files, *from, *to)
	if err != nil {
		logging.Fatal("conversion failed: %v", err)
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		logging.Fatal("failed to create output directory: %v", err)
	}
	for _, out := range outputs {
		dst := filepath.Join(*outDir, out.Name)
		if err := os.WriteFile(dst, out.Data, 0o644); err != nil {
			logging.Fatal("failed to write %s: %v", dst, err)
		}
		fmt.Println(dst)
	}

	logging.Info("converted %d file(s) to %d output(s) via %s unit", len(files), len(outputs), unitName)
}

func printCapabilities(registry *converter.Registry) {
	fmt.Printf("%-6s %-22s %-5s %-5s %s\n", "TAG", "NAME", "READ", "WRITE", "MIME")
	for _, d := range registry.Capabilities() {
		fmt.Printf("%-6s %-22s %-5v %-5v %s\n", d.Tag, d.Name, d.From, d.To, d.MIME)
	}
}
