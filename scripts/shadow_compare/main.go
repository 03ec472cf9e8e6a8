package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/urfave/cli/v2"
)

// target describes one endpoint served by both the Go API and the legacy Node backend.
// Path is relative to the Go prefix, LegacyPath to the legacy prefix (defaults to Path).
type target struct {
	Method     string   `json:"method"`
	Path       string   `json:"path"`
	LegacyPath string   `json:"legacyPath"`
	LegacyKey  string   `json:"legacyKey"`
	BodyFile   string   `json:"bodyFile"`
	Ignore     []string `json:"ignore"`
	Critical   bool     `json:"critical"`
}

type targetsFile struct {
	Targets []target `json:"targets"`
}

type endpoints struct {
	goBase     string
	legacyBase string
	baseDir    string
}

type comparison struct {
	Target         target
	LegacyStatus   int
	GoStatus       int
	StatusMatch    bool
	BodyMatch      bool
	Error          error
	DurationGo     time.Duration
	DurationLegacy time.Duration
}

func main() {
	app := &cli.App{
		Name:  "shadow-compare",
		Usage: "replay timetable reads against the Go API and the legacy backend and diff the payloads",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "go-base", Value: "http://localhost:8080/api/v1/timetable", Usage: "Go API timetable prefix"},
			&cli.StringFlag{Name: "legacy-base", Value: "http://localhost:3001/api/timetable", Usage: "legacy backend timetable prefix"},
			&cli.StringFlag{Name: "targets", Value: filepath.Join("scripts", "shadow_compare", "targets.json"), Usage: "path to JSON targets file"},
			&cli.DurationFlag{Name: "timeout", Value: 30 * time.Second, Usage: "HTTP client timeout"},
			&cli.BoolFlag{Name: "status-only", Usage: "report status mismatches only"},
		},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(c *cli.Context) error {
	targetsPath := c.String("targets")
	targets, err := loadTargets(targetsPath)
	if err != nil {
		return fmt.Errorf("load targets: %w", err)
	}

	client := &http.Client{Timeout: c.Duration("timeout")}
	ep := endpoints{
		goBase:     c.String("go-base"),
		legacyBase: c.String("legacy-base"),
		baseDir:    filepath.Dir(targetsPath),
	}

	var (
		comparisons  []comparison
		breaking     int
		optionalDiff int
	)
	for _, t := range targets {
		comp := compareTarget(client, ep, t)
		if c.Bool("status-only") && comp.Error == nil {
			comp.BodyMatch = true
		}
		if comp.Error != nil || !comp.StatusMatch || !comp.BodyMatch {
			if t.Critical {
				breaking++
			} else {
				optionalDiff++
			}
		}
		comparisons = append(comparisons, comp)
	}

	printReport(c.App.Writer, comparisons)
	fmt.Fprintf(c.App.Writer, "Breaking diffs: %d, Optional diffs: %d\n", breaking, optionalDiff)
	if breaking > 0 {
		return cli.Exit("breaking differences found", 1)
	}
	return nil
}

func loadTargets(path string) ([]target, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var file targetsFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, err
	}
	if len(file.Targets) == 0 {
		return nil, fmt.Errorf("no targets defined in %s", path)
	}
	return file.Targets, nil
}

func compareTarget(client *http.Client, ep endpoints, tgt target) comparison {
	comp := comparison{Target: tgt}

	var body []byte
	if tgt.BodyFile != "" {
		payload, err := os.ReadFile(filepath.Join(ep.baseDir, tgt.BodyFile))
		if err != nil {
			comp.Error = fmt.Errorf("read body file: %w", err)
			return comp
		}
		body = payload
	}

	legacyPath := tgt.LegacyPath
	if legacyPath == "" {
		legacyPath = tgt.Path
	}

	goStatus, goBody, goDur, err := fetch(client, ep.goBase, tgt.Method, tgt.Path, body)
	comp.DurationGo = goDur
	if err != nil {
		comp.Error = fmt.Errorf("go request failed: %w", err)
		return comp
	}
	legacyStatus, legacyBody, legacyDur, err := fetch(client, ep.legacyBase, tgt.Method, legacyPath, body)
	comp.DurationLegacy = legacyDur
	if err != nil {
		comp.Error = fmt.Errorf("legacy request failed: %w", err)
		return comp
	}

	comp.GoStatus = goStatus
	comp.LegacyStatus = legacyStatus
	comp.StatusMatch = goStatus == legacyStatus

	goPayload, err := unwrap(goBody, "data")
	if err != nil {
		comp.Error = fmt.Errorf("decode go body: %w", err)
		return comp
	}
	legacyPayload, err := unwrap(legacyBody, tgt.LegacyKey)
	if err != nil {
		comp.Error = fmt.Errorf("decode legacy body: %w", err)
		return comp
	}
	comp.BodyMatch = payloadsEqual(goPayload, legacyPayload, tgt.Ignore)
	return comp
}

func fetch(client *http.Client, base, method, path string, body []byte) (int, []byte, time.Duration, error) {
	method = strings.ToUpper(strings.TrimSpace(method))
	if method == "" {
		method = http.MethodGet
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	url := strings.TrimRight(base, "/") + path

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		return 0, nil, 0, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, 0, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, 0, err
	}
	return resp.StatusCode, data, time.Since(start), nil
}

// unwrap decodes a JSON body and returns the value under key, or the whole document when key is empty.
func unwrap(body []byte, key string) (interface{}, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}
	var doc interface{}
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, err
	}
	if key == "" {
		return doc, nil
	}
	obj, ok := doc.(map[string]interface{})
	if !ok {
		return doc, nil
	}
	return obj[key], nil
}

func payloadsEqual(a, b interface{}, ignore []string) bool {
	skip := make(map[string]struct{}, len(ignore))
	for _, key := range ignore {
		skip[key] = struct{}{}
	}
	normalize(&a, skip)
	normalize(&b, skip)
	return reflect.DeepEqual(a, b)
}

// normalize drops ignored keys at every depth and folds integral floats to int64.
func normalize(v *interface{}, skip map[string]struct{}) {
	switch val := (*v).(type) {
	case map[string]interface{}:
		for k, v2 := range val {
			if _, ok := skip[k]; ok {
				delete(val, k)
				continue
			}
			normalize(&v2, skip)
			val[k] = v2
		}
	case []interface{}:
		for i, v2 := range val {
			normalize(&v2, skip)
			val[i] = v2
		}
	case float64:
		if val == float64(int64(val)) {
			*v = int64(val)
		}
	}
}

func printReport(w io.Writer, results []comparison) {
	fmt.Fprintln(w, "Shadow Compare Report")
	fmt.Fprintln(w, "======================")
	for _, res := range results {
		status := "OK"
		if res.Error != nil {
			status = "ERROR"
		} else if !res.StatusMatch || !res.BodyMatch {
			status = "DIFF"
		}
		fmt.Fprintf(w, "[%s] %s %s\n", status, res.Target.Method, res.Target.Path)
		fmt.Fprintf(w, "  Go Status: %d (%s)\n", res.GoStatus, res.DurationGo)
		fmt.Fprintf(w, "  Legacy Status: %d (%s)\n", res.LegacyStatus, res.DurationLegacy)
		if res.Error != nil {
			fmt.Fprintf(w, "  Error: %v\n", res.Error)
		} else {
			fmt.Fprintf(w, "  Status match: %t | Body match: %t | Critical: %t\n", res.StatusMatch, res.BodyMatch, res.Target.Critical)
		}
	}
}
