package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hyperjump/docsy/internal/models"
	"github.com/hyperjump/docsy/internal/search"
)

var httpClient = &http.Client{Timeout: 60 * time.Second}

// doJSON sends body (if non-nil) as JSON and decodes a 2xx response into out.
func doJSON(ctx context.Context, method, endpoint string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func apiURL(serverURL, path string) string {
	return strings.TrimRight(serverURL, "/") + "/api/v1" + path
}

func searchViaHTTP(ctx context.Context, serverURL string, query *models.SearchQuery) (*models.SearchResponse, error) {
	var response models.SearchResponse
	if err := doJSON(ctx, http.MethodPost, apiURL(serverURL, "/search"), query, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

func turnContextViaHTTP(ctx context.Context, serverURL string, req models.TurnRequest) (*search.TurnContext, error) {
	var turn search.TurnContext
	if err := doJSON(ctx, http.MethodPost, apiURL(serverURL, "/context"), req, &turn); err != nil {
		return nil, err
	}
	return &turn, nil
}

func statusViaHTTP(ctx context.Context, serverURL string) (map[string]any, error) {
	var summary map[string]any
	if err := doJSON(ctx, http.MethodGet, apiURL(serverURL, "/status"), nil, &summary); err != nil {
		return nil, err
	}
	return summary, nil
}

func notebookStatusViaHTTP(ctx context.Context, serverURL, notebookID string) ([]*models.IndexStatus, error) {
	var out struct {
		Documents []*models.IndexStatus `json:"documents"`
	}
	path := "/notebooks/" + url.PathEscape(notebookID) + "/status"
	if err := doJSON(ctx, http.MethodGet, apiURL(serverURL, path), nil, &out); err != nil {
		return nil, err
	}
	return out.Documents, nil
}

type watchDirectoriesResponse struct {
	Directories []string `json:"directories"`
}

func watchList(ctx context.Context, serverURL string) ([]string, error) {
	var out watchDirectoriesResponse
	if err := doJSON(ctx, http.MethodGet, apiURL(serverURL, "/watch/directories"), nil, &out); err != nil {
		return nil, err
	}
	return out.Directories, nil
}

func watchAdd(ctx context.Context, serverURL, path string, syncExisting bool) error {
	body := map[string]any{"path": path, "sync": syncExisting}
	return doJSON(ctx, http.MethodPost, apiURL(serverURL, "/watch/directories"), body, nil)
}

func watchRemove(ctx context.Context, serverURL, path string) error {
	endpoint := apiURL(serverURL, "/watch/directories") + "?path=" + url.QueryEscape(path)
	return doJSON(ctx, http.MethodDelete, endpoint, nil, nil)
}

func runWatch() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: docsy watch <add|remove|list> [path]")
		fmt.Println("  docsy watch add <path>     Add an inbox directory (<path>/<notebook>/<file>)")
		fmt.Println("  docsy watch remove <path>  Stop watching an inbox directory")
		fmt.Println("  docsy watch list           List watched directories")
		os.Exit(1)
	}
	sub := os.Args[2]
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	syncExisting := fs.Bool("sync", true, "index files already in the directory (add only)")
	_ = fs.Parse(searchArgsReorder(os.Args[3:]))
	ctx := context.Background()

	switch sub {
	case "add", "remove":
		if fs.NArg() < 1 {
			fmt.Printf("Usage: docsy watch %s <path>\n", sub)
			os.Exit(1)
		}
		// The server resolves relative paths against its own working directory.
		path, err := filepath.Abs(fs.Arg(0))
		if err != nil {
			fmt.Printf("Invalid path: %v\n", err)
			os.Exit(1)
		}
		if sub == "add" {
			err = watchAdd(ctx, *serverURL, path, *syncExisting)
		} else {
			err = watchRemove(ctx, *serverURL, path)
		}
		if err != nil {
			fmt.Printf("Watch %s failed: %v\n", sub, err)
			os.Exit(1)
		}
		if sub == "add" {
			fmt.Printf("Added: %s\n", path)
		} else {
			fmt.Printf("Removed: %s\n", path)
		}
	case "list":
		dirs, err := watchList(ctx, *serverURL)
		if err != nil {
			fmt.Printf("List failed: %v\n", err)
			os.Exit(1)
		}
		for _, d := range dirs {
			fmt.Println(d)
		}
	default:
		fmt.Printf("Unknown watch subcommand: %s\n", sub)
		os.Exit(1)
	}
}
