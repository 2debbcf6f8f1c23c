package main

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type cliTestEnv struct {
	root       string
	configPath string
	htmlDir    string
	jsonDir    string
	csvDir     string
	nutrition  string
}

// setupCLITestEnv isolates HOME, the working directory and provider keys, and
// writes a config whose directories live under a temp root. extra is
// appended verbatim to the config file.
func setupCLITestEnv(t *testing.T, extra string) cliTestEnv {
	t.Helper()
	for _, key := range []string{
		"OPENAI_API_KEY", "OPENROUTER_API_KEY", "ANTHROPIC_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	root := t.TempDir()
	t.Setenv("HOME", filepath.Join(root, "home"))
	t.Chdir(root)

	env := cliTestEnv{
		root:       root,
		configPath: filepath.Join(root, "menuscope.toml"),
		htmlDir:    filepath.Join(root, "htmls"),
		jsonDir:    filepath.Join(root, "jsons"),
		csvDir:     filepath.Join(root, "csvs"),
		nutrition:  filepath.Join(root, "nutrition"),
	}
	content := fmt.Sprintf(
		"[paths]\nnames_file = %q\nhtml_dir = %q\njson_dir = %q\ncsv_dir = %q\nnutrition_dir = %q\nlog_dir = %q\n\n[logging]\nlevel = \"warn\"\n\n%s",
		filepath.Join(root, "names.txt"),
		env.htmlDir,
		env.jsonDir,
		env.csvDir,
		env.nutrition,
		filepath.Join(root, "logs"),
		extra,
	)
	if err := os.WriteFile(env.configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return env
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// fixturePage is resolved before any test changes the working directory.
var fixturePage = func() string {
	path, err := filepath.Abs(filepath.Join("..", "..", "internal", "harvest", "testdata", "protein-chef.html"))
	if err != nil {
		panic(err)
	}
	return path
}()

func copyFixturePage(t *testing.T, dir string) {
	t.Helper()
	data, err := os.ReadFile(fixturePage)
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "protein-chef.html"), data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func writeTestImage(t *testing.T, path string) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 40, 30))
	for x := 0; x < 40; x++ {
		for y := 0; y < 30; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: uint8(x * 5), B: 40, A: 255})
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
