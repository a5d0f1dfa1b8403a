package providers

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// DefaultName resolves to whichever scraper the registry's default rule selects
const DefaultName = "DEFAULT"

// Registry manages registered scrapers, their health statuses and the
// default-selection rule
type Registry struct {
	mu          sync.RWMutex
	scrapers    map[string]Scraper
	statuses    map[string]*ProviderStatus
	defaultName string
}

// NewRegistry creates a new scraper registry
func NewRegistry() *Registry {
	return &Registry{
		scrapers: make(map[string]Scraper),
		statuses: make(map[string]*ProviderStatus),
	}
}

// Register adds a scraper to the registry
func (r *Registry) Register(scraper Scraper) error {
	if scraper == nil {
		return fmt.Errorf("cannot register nil scraper")
	}

	name := scraper.Name()
	if name == "" {
		return fmt.Errorf("scraper must have a name")
	}
	if name == DefaultName {
		return fmt.Errorf("%s is reserved for the default rule", DefaultName)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.scrapers[name]; exists {
		return fmt.Errorf("scraper %s is already registered", name)
	}

	r.scrapers[name] = scraper
	r.statuses[name] = &ProviderStatus{
		ProviderName: name,
		Status:       "Pending",
	}

	return nil
}

// Unregister removes a scraper from the registry. Removing the default
// scraper also clears the default rule.
func (r *Registry) Unregister(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.scrapers[name]; !exists {
		return fmt.Errorf("scraper %s is not registered", name)
	}

	delete(r.scrapers, name)
	delete(r.statuses, name)
	if r.defaultName == name {
		r.defaultName = ""
	}

	return nil
}

// SetDefault points the DEFAULT rule at a registered scraper
func (r *Registry) SetDefault(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.scrapers[name]; !exists {
		return fmt.Errorf("cannot make %s the default: scraper not registered", name)
	}
	r.defaultName = name
	return nil
}

// Default returns the name the DEFAULT rule currently resolves to
func (r *Registry) Default() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.defaultName
}

// Get returns a scraper by name. DEFAULT and the empty name go through the
// default rule.
func (r *Registry) Get(name string) (Scraper, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if name == "" || name == DefaultName {
		if r.defaultName == "" {
			return nil, fmt.Errorf("no default scraper configured")
		}
		name = r.defaultName
	}

	scraper, exists := r.scrapers[name]
	if !exists {
		return nil, fmt.Errorf("scraper %s not found", name)
	}

	return scraper, nil
}

// GetAll returns all registered scrapers ordered by name
func (r *Registry) GetAll() []Scraper {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Scraper, 0, len(r.scrapers))
	for _, scraper := range r.scrapers {
		result = append(result, scraper)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name() < result[j].Name()
	})
	return result
}

// List returns the sorted names of all registered scrapers
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.scrapers))
	for name := range r.scrapers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of registered scrapers
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.scrapers)
}

// Clear removes all scrapers and the default rule
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.scrapers = make(map[string]Scraper)
	r.statuses = make(map[string]*ProviderStatus)
	r.defaultName = ""
}

// formatCurlCommand generates a curl command for debugging
func formatCurlCommand(url string, headers map[string]string) string {
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("curl -v ")
	for _, k := range keys {
		fmt.Fprintf(&b, "-H '%s: %s' ", k, headers[k])
	}
	fmt.Fprintf(&b, "'%s'", url)
	return b.String()
}

// CheckAllProviders runs a health check on all registered scrapers concurrently.
func (r *Registry) CheckAllProviders(ctx context.Context, userAgent string) {
	scrapers := r.GetAll()
	var wg sync.WaitGroup

	for _, s := range scrapers {
		wg.Add(1)
		go func(scraper Scraper) {
			defer wg.Done()
			r.checkProvider(ctx, scraper, userAgent)
		}(s)
	}

	wg.Wait()
}

func (r *Registry) checkProvider(ctx context.Context, scraper Scraper, userAgent string) {
	name := scraper.Name()

	r.mu.Lock()
	status, ok := r.statuses[name]
	if !ok {
		r.mu.Unlock()
		return
	}
	status.Status = "Checking..."
	status.LastCheck = time.Now()
	r.mu.Unlock()

	healthURL := "unknown"
	if u, ok := scraper.(HealthURLer); ok {
		healthURL = u.HealthURL()
	}

	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	startTime := time.Now()
	err := scraper.HealthCheck(checkCtx)
	duration := time.Since(startTime)

	result := &HealthCheckResult{
		URL:         healthURL,
		CurlCommand: formatCurlCommand(healthURL, map[string]string{"User-Agent": userAgent}),
		Duration:    duration,
		CheckedAt:   time.Now(),
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		status.Healthy = false
		status.Status = fmt.Sprintf("Offline: %v", err)
		result.Error = err.Error()
	} else {
		status.Healthy = true
		status.Status = "Online"
		result.StatusCode = 200
	}
	status.LastCheck = time.Now()
	status.LastResult = result
}

// GetProviderStatuses returns a snapshot of every scraper's health status
func (r *Registry) GetProviderStatuses() []ProviderStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()

	statuses := make([]ProviderStatus, 0, len(r.statuses))
	for _, status := range r.statuses {
		statuses = append(statuses, *status)
	}
	sort.Slice(statuses, func(i, j int) bool {
		return statuses[i].ProviderName < statuses[j].ProviderName
	})
	return statuses
}
