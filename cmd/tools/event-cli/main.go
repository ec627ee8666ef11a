package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"
	"sort"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/websocket"

	"github.com/annel0/tome/internal/api"
	"github.com/annel0/tome/internal/eventbus"
)

const (
	defaultServerAddr = "localhost:8088"
	defaultNATSURL    = "nats://127.0.0.1:4222"
)

// event событие тайла независимо от источника
type event struct {
	Type string
	TS   time.Time
	Tile eventbus.TilePayload
}

func main() {
	var (
		source     = flag.String("source", "ws", "Источник: ws (REST сервер) или nats (JetStream)")
		serverAddr = flag.String("server", defaultServerAddr, "Адрес REST сервера для -source ws")
		natsURL    = flag.String("nats", defaultNATSURL, "URL NATS для -source nats")
		stream     = flag.String("stream", "TILES", "Имя стрима JetStream")
		command    = flag.String("cmd", "tail", "Команда: tail, stats")
		eventTypes = flag.String("types", "", "Фильтр типов событий (через запятую)")
		limit      = flag.Int("limit", 0, "Остановиться после N событий (0 - без ограничения)")
		duration   = flag.Duration("duration", 10*time.Second, "Длительность сбора для stats")
	)
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	types := parseStringList(*eventTypes)
	events := make(chan event, 256)

	var err error
	switch *source {
	case "ws":
		err = streamWS(ctx, *serverAddr, types, events)
	case "nats":
		err = streamNATS(ctx, *natsURL, *stream, types, events)
	default:
		fmt.Printf("❌ Неизвестный источник: %s\n", *source)
		os.Exit(1)
	}
	if err != nil {
		log.Fatalf("❌ Подключение не удалось: %v", err)
	}

	switch *command {
	case "tail":
		tailEvents(ctx, events, *limit)
	case "stats":
		ctx, cancel := context.WithTimeout(ctx, *duration)
		defer cancel()
		showStats(collectStats(ctx, events, *limit))
	default:
		fmt.Printf("❌ Неизвестная команда: %s\n", *command)
		fmt.Println("Доступные команды: tail, stats")
		os.Exit(1)
	}
}

// streamWS читает поток /ws/events REST сервера
func streamWS(ctx context.Context, addr string, types []string, out chan<- event) error {
	u := url.URL{Scheme: "ws", Host: addr, Path: "/ws/events"}
	if len(types) > 0 {
		u.RawQuery = "types=" + url.QueryEscape(strings.Join(types, ","))
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return err
	}

	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()
	go func() {
		defer close(out)
		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var msg api.EventMessage
			if err := json.Unmarshal(raw, &msg); err != nil {
				continue
			}
			out <- event{Type: msg.Type, TS: msg.TS, Tile: msg.Tile}
		}
	}()
	return nil
}

// streamNATS подписывается на стрим событий тайлов напрямую
func streamNATS(ctx context.Context, natsURL, stream string, types []string, out chan<- event) error {
	bus, err := eventbus.NewJetStreamBus(natsURL, stream, 0)
	if err != nil {
		return err
	}

	var mu sync.Mutex
	closed := false
	_, err = bus.Subscribe(ctx, eventbus.Filter{Types: types}, func(_ context.Context, ev *eventbus.Envelope) {
		payload, err := eventbus.DecodeTile(ev)
		if err != nil {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		if !closed {
			out <- event{Type: ev.EventType, TS: ev.Timestamp, Tile: payload}
		}
	})
	if err != nil {
		_ = bus.Close()
		return err
	}

	go func() {
		<-ctx.Done()
		_ = bus.Close()
		mu.Lock()
		closed = true
		close(out)
		mu.Unlock()
	}()
	return nil
}

// tailEvents выводит события по мере поступления
func tailEvents(ctx context.Context, events <-chan event, limit int) {
	fmt.Printf("🎬 Поток событий тайлов (limit: %d)\n", limit)

	count := 0
	for {
		select {
		case <-ctx.Done():
			fmt.Printf("\n✅ Получено %d событий\n", count)
			return
		case ev, ok := <-events:
			if !ok {
				fmt.Printf("\n✅ Поток закрыт, получено %d событий\n", count)
				return
			}
			count++
			printEvent(count, ev)
			if limit > 0 && count >= limit {
				fmt.Printf("\n✅ Достигнут лимит %d событий\n", limit)
				return
			}
		}
	}
}

func printEvent(n int, ev event) {
	t := ev.Tile
	line := fmt.Sprintf("[%d] %s %-12s (%d,%d,%d)", n, ev.TS.Local().Format("15:04:05.000"), ev.Type, t.Coord.X, t.Coord.Y, t.Coord.Z)
	if t.Key != "" {
		line += fmt.Sprintf(" %s rot=%.0f", t.Key, t.Rotation)
		if t.Mirrored {
			line += " mirrored"
		}
	}
	fmt.Println(line)
}

// Stats сводка по собранным событиям
type Stats struct {
	Total  int
	ByType map[string]int
	ByKey  map[string]int
	Window time.Duration
}

func collectStats(ctx context.Context, events <-chan event, limit int) Stats {
	stats := Stats{ByType: map[string]int{}, ByKey: map[string]int{}}
	start := time.Now()

	for {
		select {
		case <-ctx.Done():
			stats.Window = time.Since(start)
			return stats
		case ev, ok := <-events:
			if !ok {
				stats.Window = time.Since(start)
				return stats
			}
			stats.Total++
			stats.ByType[ev.Type]++
			if ev.Type == eventbus.TypeTilePlaced && ev.Tile.Key != "" {
				stats.ByKey[ev.Tile.Key]++
			}
			if limit > 0 && stats.Total >= limit {
				stats.Window = time.Since(start)
				return stats
			}
		}
	}
}

func showStats(stats Stats) {
	fmt.Printf("📊 Событий: %d за %s\n", stats.Total, stats.Window.Round(time.Millisecond))

	fmt.Println("\nПо типам:")
	for _, k := range sortedKeys(stats.ByType) {
		fmt.Printf("  %-14s %d\n", k, stats.ByType[k])
	}

	if len(stats.ByKey) > 0 {
		fmt.Println("\nРазмещено по определениям:")
		for _, k := range sortedKeys(stats.ByKey) {
			fmt.Printf("  %-24s %d\n", k, stats.ByKey[k])
		}
	}
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// parseStringList разбирает список через запятую
func parseStringList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
