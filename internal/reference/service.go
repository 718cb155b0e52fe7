package reference

import (
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/patrickmn/go-cache"
)

const (
	knowledgeFile = "knowledge.json"
	tipsFile      = "tips.json"

	renderedKey = "knowledge:rendered"
	tipsKey     = "tips:entries"
)

// diseaseEntry is one record of the knowledge base
type diseaseEntry struct {
	Disease       string   `json:"disease"`
	Signs         []string `json:"signs"`
	Causes        []string `json:"causes"`
	Prevention    []string `json:"prevention"`
	Treatment     []string `json:"treatment"`
	Advice        []string `json:"advice"`
	MalawiContext []string `json:"malawi_context"`
}

// Service loads the static reference knowledge base and renders it into the
// text blob injected into every prompt. Renders are cached; an fsnotify
// watcher on the data directory invalidates the cache when the files change.
type Service struct {
	dataDir string
	cache   *cache.Cache
}

// NewService creates a reference data service rooted at dataDir
func NewService(dataDir string) *Service {
	return &Service{
		dataDir: dataDir,
		cache:   cache.New(cache.NoExpiration, 10*time.Minute),
	}
}

// LoadReferenceData returns the knowledge base rendered as one text blob.
// Read failures degrade to an empty blob rather than failing the request.
func (s *Service) LoadReferenceData() string {
	if cached, found := s.cache.Get(renderedKey); found {
		return cached.(string)
	}

	data, err := os.ReadFile(filepath.Join(s.dataDir, knowledgeFile))
	if err != nil {
		log.Printf("⚠️  Failed to read knowledge base: %v", err)
		return ""
	}

	var entries []diseaseEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		log.Printf("⚠️  Failed to parse knowledge base: %v", err)
		return ""
	}

	blocks := make([]string, 0, len(entries))
	for _, entry := range entries {
		blocks = append(blocks, renderEntry(entry))
	}

	rendered := strings.Join(blocks, "\n\n")
	s.cache.Set(renderedKey, rendered, cache.NoExpiration)
	return rendered
}

// RandomTip returns one random entry from tips.json, or an empty map when the
// file is missing or empty
func (s *Service) RandomTip() map[string]any {
	var tips []map[string]any

	if cached, found := s.cache.Get(tipsKey); found {
		tips = cached.([]map[string]any)
	} else {
		data, err := os.ReadFile(filepath.Join(s.dataDir, tipsFile))
		if err != nil {
			return map[string]any{}
		}
		if err := json.Unmarshal(data, &tips); err != nil {
			log.Printf("⚠️  Failed to parse tips file: %v", err)
			return map[string]any{}
		}
		s.cache.Set(tipsKey, tips, cache.NoExpiration)
	}

	if len(tips) == 0 {
		return map[string]any{}
	}
	return tips[rand.Intn(len(tips))]
}

// Watch invalidates the cache when reference files change (hot-reload).
// Runs until the process exits; call in a goroutine.
func (s *Service) Watch() {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Printf("⚠️  Failed to create reference data watcher: %v", err)
		return
	}

	if err := watcher.Add(s.dataDir); err != nil {
		log.Printf("⚠️  Failed to watch %s: %v", s.dataDir, err)
		watcher.Close()
		return
	}

	log.Printf("👁️  Watching %s for reference data changes (hot-reload enabled)", s.dataDir)

	// Debounce timer to avoid repeated invalidations on rapid writes
	var debounceTimer *time.Timer
	debounceDuration := 500 * time.Millisecond

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}

			name := filepath.Base(event.Name)
			if name != knowledgeFile && name != tipsFile {
				continue
			}

			if event.Op&fsnotify.Write == fsnotify.Write || event.Op&fsnotify.Create == fsnotify.Create {
				if debounceTimer != nil {
					debounceTimer.Stop()
				}
				debounceTimer = time.AfterFunc(debounceDuration, func() {
					log.Printf("🔄 Detected changes in %s, reloading reference data", name)
					s.cache.Flush()
				})
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Printf("⚠️  Reference data watcher error: %v", err)
		}
	}
}

func renderEntry(entry diseaseEntry) string {
	name := entry.Disease
	if name == "" {
		name = "Unknown Disease"
	}

	return strings.TrimSpace(fmt.Sprintf(`------------------------
Disease: %s

SIGNS:
%s

CAUSES:
%s

PREVENTION:
%s

TREATMENT:
%s

ADVICE:
%s

MALAWI CONTEXT:
%s
------------------------`,
		name,
		formatList(entry.Signs),
		formatList(entry.Causes),
		formatList(entry.Prevention),
		formatList(entry.Treatment),
		formatList(entry.Advice),
		formatList(entry.MalawiContext),
	))
}

// formatList renders a list of strings as bullet points
func formatList(items []string) string {
	if len(items) == 0 {
		return "  - (Not provided)"
	}
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = "  - " + item
	}
	return strings.Join(lines, "\n")
}
