package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lazatu/realty-api/internal/config"
	"github.com/lazatu/realty-api/internal/db"
)

// The simulator hammers the booking endpoints with many customers racing for
// a small set of viewing slots, to observe how often the slot lock turns
// contention into clean 409s instead of double bookings.

type simConfig struct {
	APIBaseURL    string
	Duration      time.Duration
	Workers       int
	BookingRatio  float64
	ConfirmRatio  float64
	PropertyLimit int
	CustomerLimit int
	PostgresDSN   string
}

type dataPool struct {
	Customers  []int64
	Properties []int64

	mu           sync.RWMutex
	appointments []int64
}

func (dp *dataPool) addAppointment(id int64) {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	dp.appointments = append(dp.appointments, id)
}

func (dp *dataPool) randomAppointment(rng *rand.Rand) (int64, bool) {
	dp.mu.RLock()
	defer dp.mu.RUnlock()
	if len(dp.appointments) == 0 {
		return 0, false
	}
	return dp.appointments[rng.Intn(len(dp.appointments))], true
}

type opMetrics struct {
	Total     int64
	Success   int64
	Conflict  int64
	Rejected  int64
	Error     int64
	mu        sync.Mutex
	latencies []time.Duration
}

func (om *opMetrics) record(latency time.Duration, status int, err error) {
	atomic.AddInt64(&om.Total, 1)
	switch {
	case err != nil:
		atomic.AddInt64(&om.Error, 1)
	case status == http.StatusOK || status == http.StatusCreated:
		atomic.AddInt64(&om.Success, 1)
	case status == http.StatusConflict:
		atomic.AddInt64(&om.Conflict, 1)
	case status == http.StatusUnprocessableEntity:
		atomic.AddInt64(&om.Rejected, 1)
	default:
		atomic.AddInt64(&om.Error, 1)
	}

	om.mu.Lock()
	om.latencies = append(om.latencies, latency)
	om.mu.Unlock()
}

func (om *opMetrics) stats() (avg, p50, p95 time.Duration) {
	om.mu.Lock()
	defer om.mu.Unlock()

	if len(om.latencies) == 0 {
		return 0, 0, 0
	}

	sorted := make([]time.Duration, len(om.latencies))
	copy(sorted, om.latencies)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var sum time.Duration
	for _, l := range sorted {
		sum += l
	}

	return sum / time.Duration(len(sorted)),
		sorted[len(sorted)*50/100],
		sorted[min(len(sorted)*95/100, len(sorted)-1)]
}

type simulator struct {
	cfg     simConfig
	pool    *dataPool
	client  *http.Client
	booking opMetrics
	confirm opMetrics
	list    opMetrics
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("simulator starting")

	cfg := loadSimConfig()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pgPool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pgPool.Close()

	pool, err := loadDataPool(ctx, pgPool, cfg)
	if err != nil {
		log.Fatalf("load data pool: %v", err)
	}
	log.Printf("loaded: %d customers, %d published properties",
		len(pool.Customers), len(pool.Properties))

	sim := &simulator{
		cfg:    cfg,
		pool:   pool,
		client: &http.Client{Timeout: 10 * time.Second},
	}

	sim.run()
	sim.report()
}

func loadSimConfig() simConfig {
	base, err := config.Load()
	if err != nil {
		log.Fatalf("load base config: %v", err)
	}

	cfg := simConfig{
		APIBaseURL:    getEnv("SIM_API_BASE_URL", "http://localhost:8080"),
		Duration:      getDuration("SIM_DURATION", 30*time.Second),
		Workers:       getInt("SIM_WORKERS", 10),
		BookingRatio:  getFloat("SIM_BOOKING_RATIO", 0.5),
		ConfirmRatio:  getFloat("SIM_CONFIRM_RATIO", 0.2),
		PropertyLimit: getInt("SIM_PROPERTY_LIMIT", 50),
		CustomerLimit: getInt("SIM_CUSTOMER_LIMIT", 2000),
		PostgresDSN:   base.PostgresDSN,
	}

	if cfg.Workers <= 0 || cfg.Duration <= 0 {
		log.Fatal("SIM_WORKERS and SIM_DURATION must be positive")
	}

	return cfg
}

func loadDataPool(ctx context.Context, pool *pgxpool.Pool, cfg simConfig) (*dataPool, error) {
	dp := &dataPool{}

	rows, err := pool.Query(ctx, `
		SELECT u.id FROM users u
		WHERE EXISTS (
			SELECT 1 FROM role_user ru JOIN roles r ON ru.role_id = r.id
			WHERE ru.user_id = u.id AND r.name = 'customer'
		)
		LIMIT $1
	`, cfg.CustomerLimit)
	if err != nil {
		return nil, fmt.Errorf("load customers: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		dp.Customers = append(dp.Customers, id)
	}

	rows, err = pool.Query(ctx, `
		SELECT id FROM properties
		WHERE property_status_id = 1 AND expired_at > now()
		LIMIT $1
	`, cfg.PropertyLimit)
	if err != nil {
		return nil, fmt.Errorf("load properties: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		dp.Properties = append(dp.Properties, id)
	}

	if len(dp.Customers) == 0 || len(dp.Properties) == 0 {
		return nil, fmt.Errorf("need seeded customers and published properties, run cmd/seed first")
	}

	return dp, nil
}

func (s *simulator) run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Duration)
	defer cancel()

	log.Printf("running for %s with %d workers", s.cfg.Duration, s.cfg.Workers)

	var wg sync.WaitGroup
	for i := 0; i < s.cfg.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(workerID)))
			for ctx.Err() == nil {
				r := rng.Float64()
				switch {
				case r < s.cfg.BookingRatio:
					s.doBooking(ctx, rng)
				case r < s.cfg.BookingRatio+s.cfg.ConfirmRatio:
					s.doConfirm(ctx, rng)
				default:
					s.doList(ctx, rng)
				}
			}
		}(i)
	}

	wg.Wait()
	log.Println("simulation complete")
}

// doBooking requests one of a handful of slots tomorrow, so many customers
// collide on the same date/start_time pairs.
func (s *simulator) doBooking(ctx context.Context, rng *rand.Rand) {
	propertyID := s.pool.Properties[rng.Intn(len(s.pool.Properties))]
	customerID := s.pool.Customers[rng.Intn(len(s.pool.Customers))]

	body, _ := json.Marshal(map[string]string{
		"date":       time.Now().AddDate(0, 0, 1).Format("2006-01-02"),
		"start_time": fmt.Sprintf("%02d:00", 9+rng.Intn(8)),
	})

	start := time.Now()
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s/properties/%d/appointments", s.cfg.APIBaseURL, propertyID),
		bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", strconv.FormatInt(customerID, 10))
	req.Header.Set("X-User-Roles", "customer")

	resp, err := s.client.Do(req)
	latency := time.Since(start)

	status := 0
	if err == nil {
		defer resp.Body.Close()
		status = resp.StatusCode
		if status == http.StatusCreated {
			var created struct {
				ID int64 `json:"id"`
			}
			if json.NewDecoder(resp.Body).Decode(&created) == nil && created.ID != 0 {
				s.pool.addAppointment(created.ID)
			}
		}
	}

	s.booking.record(latency, status, err)
}

func (s *simulator) doConfirm(ctx context.Context, rng *rand.Rand) {
	apptID, ok := s.pool.randomAppointment(rng)
	if !ok {
		return
	}

	start := time.Now()
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s/appointments/%d/confirm", s.cfg.APIBaseURL, apptID), nil)
	req.Header.Set("X-User-ID", "2")
	req.Header.Set("X-User-Roles", "admin")

	resp, err := s.client.Do(req)
	latency := time.Since(start)

	status := 0
	if err == nil {
		resp.Body.Close()
		status = resp.StatusCode
	}

	s.confirm.record(latency, status, err)
}

func (s *simulator) doList(ctx context.Context, rng *rand.Rand) {
	propertyID := s.pool.Properties[rng.Intn(len(s.pool.Properties))]

	start := time.Now()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/appointments?property_id=%d&page_size=20", s.cfg.APIBaseURL, propertyID), nil)
	req.Header.Set("X-User-ID", "2")
	req.Header.Set("X-User-Roles", "admin")

	resp, err := s.client.Do(req)
	latency := time.Since(start)

	status := 0
	if err == nil {
		resp.Body.Close()
		status = resp.StatusCode
	}

	s.list.record(latency, status, err)
}

func (s *simulator) report() {
	fmt.Println("\nSIMULATION REPORT")
	fmt.Printf("duration=%s workers=%d\n\n", s.cfg.Duration, s.cfg.Workers)

	printOp("Booking", &s.booking)
	printOp("Confirm", &s.confirm)
	printOp("List", &s.list)
}

func printOp(name string, om *opMetrics) {
	total := atomic.LoadInt64(&om.Total)
	if total == 0 {
		return
	}

	avg, p50, p95 := om.stats()

	fmt.Printf("%s: total=%d success=%d conflict=%d rejected=%d error=%d\n",
		name, total,
		atomic.LoadInt64(&om.Success),
		atomic.LoadInt64(&om.Conflict),
		atomic.LoadInt64(&om.Rejected),
		atomic.LoadInt64(&om.Error))
	fmt.Printf("  latency: avg=%s p50=%s p95=%s\n\n",
		avg.Round(time.Millisecond), p50.Round(time.Millisecond), p95.Round(time.Millisecond))
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}
