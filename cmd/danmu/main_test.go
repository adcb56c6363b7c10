package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"danmu/internal/api"
)

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()

	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	if configPath != "" {
		args = append([]string{"--config", configPath}, args...)
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, baseURL string) string {
	t.Helper()

	base := t.TempDir()
	content := fmt.Sprintf(`[paths]
cache_dir = %q
log_dir = %q

[danmaku]
base_url = %q
retry_attempts = 1
`, filepath.Join(base, "cache"), filepath.Join(base, "logs"), baseURL)
	path := filepath.Join(base, "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func requireContains(t *testing.T, output, want string) {
	t.Helper()
	if !strings.Contains(output, want) {
		t.Fatalf("output %q does not contain %q", output, want)
	}
}

// newStubAPI serves the three comment API endpoints with a single candidate.
func newStubAPI(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v2/search/anime", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"animes": []map[string]any{
				{
					"animeId":         10,
					"animeTitle":      "葬送的芙莉莲",
					"type":            "tvseries",
					"typeDescription": "TV动画",
					"episodeCount":    2,
				},
			},
		})
	})
	mux.HandleFunc("/api/v2/bangumi/10", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"bangumi": map[string]any{
				"animeId":         10,
				"animeTitle":      "葬送的芙莉莲",
				"type":            "tvseries",
				"typeDescription": "TV动画",
				"episodes": []map[string]any{
					{"episodeId": 101, "episodeTitle": "第1话 旅途的终点"},
					{"episodeId": 102, "episodeTitle": "第2话 魔法使的弟子"},
				},
			},
		})
	})
	mux.HandleFunc("/api/v2/comment/", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"count": 2,
			"comments": []map[string]any{
				{"cid": 1, "p": "5.00,1,16777215,user", "m": "前方高能"},
				{"cid": 2, "p": "9.50,4,255,user", "m": "名场面"},
			},
		})
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestRootShowsHelp(t *testing.T) {
	out, _, err := runCLI(t, nil, writeTestConfig(t, "http://127.0.0.1:1"))
	if err != nil {
		t.Fatalf("root command: %v", err)
	}
	requireContains(t, out, "resolve")
	requireContains(t, out, "sources")
}

func TestConfigInitAndValidate(t *testing.T) {
	tmp := t.TempDir()
	target := filepath.Join(tmp, "config.toml")

	out, _, err := runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected second init without --overwrite to fail")
	}
}

func TestCacheStatsEmpty(t *testing.T) {
	configPath := writeTestConfig(t, "http://127.0.0.1:1")

	out, _, err := runCLI(t, []string{"cache", "stats"}, configPath)
	if err != nil {
		t.Fatalf("cache stats: %v", err)
	}
	requireContains(t, out, "Details:     0")
	requireContains(t, out, "Preferences: 0")
}

func TestHistoryListEmpty(t *testing.T) {
	configPath := writeTestConfig(t, "http://127.0.0.1:1")

	out, _, err := runCLI(t, []string{"history", "list"}, configPath)
	if err != nil {
		t.Fatalf("history list: %v", err)
	}
	requireContains(t, out, "No viewing history")
}

func TestResolveEndToEnd(t *testing.T) {
	stub := newStubAPI(t)
	configPath := writeTestConfig(t, stub.URL)

	out, _, err := runCLI(t, []string{"resolve", "葬送的芙莉莲 第1集", "--episode", "0", "--json"}, configPath)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	var result api.ResolveResult
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
	if !result.Resolved {
		t.Fatal("expected a resolved episode")
	}
	if result.EpisodeID != 101 {
		t.Fatalf("EpisodeID = %d, want 101", result.EpisodeID)
	}
	if len(result.Comments) != 2 {
		t.Fatalf("len(Comments) = %d, want 2", len(result.Comments))
	}
}

func TestSourcesListEndToEnd(t *testing.T) {
	stub := newStubAPI(t)
	configPath := writeTestConfig(t, stub.URL)

	out, _, err := runCLI(t, []string{"sources", "list", "葬送的芙莉莲"}, configPath)
	if err != nil {
		t.Fatalf("sources list: %v", err)
	}
	requireContains(t, out, "葬送的芙莉莲")
	requireContains(t, out, "recommended")
}

func TestEpisodesEndToEnd(t *testing.T) {
	stub := newStubAPI(t)
	configPath := writeTestConfig(t, stub.URL)

	out, _, err := runCLI(t, []string{"episodes", "葬送的芙莉莲"}, configPath)
	if err != nil {
		t.Fatalf("episodes: %v", err)
	}
	requireContains(t, out, "第1话 旅途的终点")
	requireContains(t, out, "第2话 魔法使的弟子")
}
