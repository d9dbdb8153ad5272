// bmp-parser prints the metadata of 24 bit BMP files and serves them as JSON
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/term"

	"github.com/anas-shakeel/bmp-parser/internal/bmp"
	"github.com/anas-shakeel/bmp-parser/internal/config"
	"github.com/anas-shakeel/bmp-parser/internal/server"
)

const usage = `Usage:
  bmp-parser [-meta] [-json] [-preview] <file.bmp>
  bmp-parser serve [-config config.yaml] [-addr :8000] [-image file.bmp]
`

func main() {
	args := os.Args[1:]
	if len(args) > 0 && args[0] == "serve" {
		os.Exit(runServe(args[1:], os.Stderr))
	}
	os.Exit(runInfo(args, os.Stdout, os.Stderr))
}

// Prints a single bitmap. Returns the exit status.
func runInfo(args []string, stdout, stderr io.Writer) int {
	flags := flag.NewFlagSet("bmp-parser", flag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.Usage = func() { fmt.Fprint(stderr, usage); flags.PrintDefaults() }
	metaOnly := flags.Bool("meta", false, "read the headers only (works for any bit depth or compression)")
	asJSON := flags.Bool("json", false, "print JSON instead of text")
	preview := flags.Bool("preview", false, "draw the image in the terminal")
	if err := flags.Parse(args); err != nil {
		return 2
	}
	if flags.NArg() != 1 {
		flags.Usage()
		return 2
	}
	filename := flags.Arg(0)

	if *metaOnly {
		if err := printHeaders(filename, *asJSON, stdout); err != nil {
			fmt.Fprintln(stderr, "error:", err)
			return 1
		}
		return 0
	}

	bitmap, err := bmp.Read(filename)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}

	if *asJSON {
		err = json.NewEncoder(stdout).Encode(bitmap)
	} else {
		err = bitmap.PrintMetadata(stdout)
	}
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}

	if *preview {
		if err := printPreview(bitmap, stdout); err != nil {
			fmt.Fprintln(stderr, "preview:", err)
		}
	}
	return 0
}

func printHeaders(filename string, asJSON bool, w io.Writer) error {
	file, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	bf, bi, err := bmp.DecodeHeaders(file)
	if err != nil {
		return fmt.Errorf("%s: %w", filename, err)
	}
	if !asJSON {
		return bmp.PrintHeaders(w, bf, bi)
	}

	data, err := bmp.MarshalHeaders(bf, bi)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}

var errNotTerminal = errors.New("output is not a terminal")

// Draws the bitmap with two columns per pixel, if it fits the terminal
func printPreview(bitmap *bmp.BitmapImage, w io.Writer) error {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return errNotTerminal
	}
	cols, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return err
	}
	if bitmap.Width()*2 > cols {
		return fmt.Errorf("image is %d px wide, terminal fits %d", bitmap.Width(), cols/2)
	}
	return bitmap.PrintBitmap(w)
}

func runServe(args []string, stderr io.Writer) int {
	flags := flag.NewFlagSet("serve", flag.ContinueOnError)
	flags.SetOutput(stderr)
	configPath := flags.String("config", "config.yaml", "path of the YAML configuration")
	addr := flags.String("addr", "", "listen address (overrides the configuration)")
	image := flags.String("image", "", "bitmap to serve (overrides the configuration)")
	if err := flags.Parse(args); err != nil {
		return 2
	}

	cfg, err := loadConfig(*configPath, *addr, *image)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	level, _ := cfg.Level()
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.New(cfg, logger).ListenAndServe(ctx); err != nil {
		logger.Error("server failed", "err", err)
		return 1
	}
	return 0
}

// Loads the configuration file and applies the command line overrides
func loadConfig(path, addr, image string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if addr != "" {
		cfg.Addr = addr
	}
	if image != "" {
		cfg.Image = image
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
