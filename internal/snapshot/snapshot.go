// Package snapshot выгружает решённые ячейки карты в сжатый zstd JSON.
// Снимок служит только для просмотра; генератор его не загружает.
package snapshot

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/annel0/tome/internal/tile"
	"github.com/annel0/tome/internal/vec"
	"github.com/annel0/tome/internal/world"
)

// Version формат снимка
const Version = 1

// Header первая строка снимка
type Header struct {
	Version   int           `json:"version"`
	CreatedAt time.Time     `json:"created_at"`
	CellSize  vec.Vec3Float `json:"cell_size"`
	Tiles     int           `json:"tiles"`
	Occupied  int           `json:"occupied"`
}

// Tile решённая ячейка
type Tile struct {
	Coord    vec.Vec3 `json:"coord"`
	Key      string   `json:"key,omitempty"`
	Type     string   `json:"type,omitempty"`
	Rotation float64  `json:"rotation"`
	Mirrored bool     `json:"mirrored,omitempty"`
}

// Snapshot снимок карты тайлов
type Snapshot struct {
	Header Header `json:"header"`
	Tiles  []Tile `json:"tiles"`
}

// Capture собирает снимок; ячейки упорядочены по z, y, x.
// Поворот и зеркальность берутся из трансформа объекта у спавнера.
func Capture(store world.TileStore, spawner world.Spawner, grid world.Grid, now time.Time) (Snapshot, error) {
	snap := Snapshot{Header: Header{Version: Version, CreatedAt: now.UTC(), CellSize: grid.CellSize}}

	err := store.Range(func(coord vec.Vec3, inst world.TileInstance) bool {
		t := Tile{Coord: coord}
		if inst.Occupied() && inst.Def != nil {
			t.Key = inst.Def.Key
			t.Type = string(inst.Def.Type)
			if tr, ok := spawner.Transform(inst.Handle); ok {
				t.Rotation = tile.ActorTileRotation(tr.Yaw).Degrees()
				t.Mirrored = tile.IsMirrored(tr.Scale)
			}
			snap.Header.Occupied++
		}
		snap.Tiles = append(snap.Tiles, t)
		return true
	})
	if err != nil {
		return Snapshot{}, fmt.Errorf("обход карты: %w", err)
	}

	sort.Slice(snap.Tiles, func(i, j int) bool {
		a, b := snap.Tiles[i].Coord, snap.Tiles[j].Coord
		if a.Z != b.Z {
			return a.Z < b.Z
		}
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.X < b.X
	})
	snap.Header.Tiles = len(snap.Tiles)
	return snap, nil
}

// Encode пишет снимок: строка заголовка, затем тело JSON, всё под zstd
func Encode(w io.Writer, snap Snapshot) error {
	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}

	bw := bufio.NewWriterSize(enc, 64*1024)

	hb, err := json.Marshal(snap.Header)
	if err != nil {
		enc.Close()
		return err
	}
	if _, err := bw.Write(append(hb, '\n')); err != nil {
		enc.Close()
		return err
	}
	if err := json.NewEncoder(bw).Encode(snap.Tiles); err != nil {
		enc.Close()
		return fmt.Errorf("json encode: %w", err)
	}
	if err := bw.Flush(); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}

// Decode читает снимок, записанный Encode
func Decode(r io.Reader) (Snapshot, error) {
	var snap Snapshot

	dec, err := zstd.NewReader(r)
	if err != nil {
		return snap, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 64*1024)

	line, err := br.ReadBytes('\n')
	if err != nil {
		return snap, fmt.Errorf("заголовок снимка: %w", err)
	}
	if err := json.Unmarshal(line, &snap.Header); err != nil {
		return snap, fmt.Errorf("заголовок снимка: %w", err)
	}
	if snap.Header.Version != Version {
		return snap, fmt.Errorf("неподдерживаемая версия снимка %d", snap.Header.Version)
	}

	if err := json.NewDecoder(br).Decode(&snap.Tiles); err != nil {
		return snap, fmt.Errorf("json decode: %w", err)
	}
	return snap, nil
}

// WriteFile сохраняет снимок в файл
func WriteFile(path string, snap Snapshot) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if err := Encode(f, snap); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadFile читает снимок из файла
func ReadFile(path string) (Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return Snapshot{}, err
	}
	defer f.Close()
	return Decode(f)
}
