package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/yungbote/trailmark-backend/internal/app"
)

func main() {
	path := flag.String("file", "", "curriculum YAML file")
	flag.Parse()
	if *path == "" {
		fmt.Fprintln(os.Stderr, "usage: curriculum_import -file curriculum.yaml")
		os.Exit(2)
	}
	_ = godotenv.Load()

	raw, err := os.ReadFile(*path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read %s: %v\n", *path, err)
		os.Exit(1)
	}

	a, err := app.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to init app: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	res, err := a.Services.Curriculum.Import(context.Background(), raw)
	if err != nil {
		a.Log.Error("Curriculum import failed", "file", *path, "error", err)
		a.Close()
		os.Exit(1)
	}
	a.Log.Info("Curriculum imported",
		"file", *path,
		"badges", res.Badges,
		"requirements", res.Requirements,
		"questions", res.Questions,
		"skipped", res.Skipped,
	)
}
