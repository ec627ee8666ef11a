package api

import (
	"bytes"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/annel0/tome/internal/snapshot"
	"github.com/annel0/tome/internal/tile"
	"github.com/annel0/tome/internal/vec"
	"github.com/annel0/tome/internal/world"
)

// TileView ячейка карты в ответах API
type TileView struct {
	Coord       vec.Vec3          `json:"coord"`
	Occupied    bool              `json:"occupied"`
	Key         string            `json:"key,omitempty"`
	Type        string            `json:"type,omitempty"`
	Rotation    float64           `json:"rotation"`
	Mirrored    bool              `json:"mirrored,omitempty"`
	Handle      uint64            `json:"handle,omitempty"`
	Position    vec.Vec3Float     `json:"position"`
	Connections map[string]string `json:"connections,omitempty"`
}

func viewOf(gen *world.Generator, coord vec.Vec3, inst world.TileInstance, withFaces bool) TileView {
	v := TileView{
		Coord:    coord,
		Position: gen.Grid().GridToWorld(coord),
	}
	if !inst.Occupied() || inst.Def == nil {
		return v
	}

	v.Occupied = true
	v.Key = inst.Def.Key
	v.Type = string(inst.Def.Type)
	v.Handle = uint64(inst.Handle)

	rot, scale := tile.Rot0, vec.One
	if tr, ok := gen.Spawner().Transform(inst.Handle); ok {
		rot = tile.ActorTileRotation(tr.Yaw)
		scale = tr.Scale
	}
	v.Rotation = rot.Degrees()
	v.Mirrored = tile.IsMirrored(scale)

	if withFaces {
		faces := tile.WorldConnections(inst.Def, rot, scale)
		v.Connections = make(map[string]string, tile.DirectionCount)
		for _, d := range tile.AllDirections() {
			v.Connections[d.String()] = faces[d].String()
		}
	}
	return v
}

// handleHealth проверка состояния сервера
func (rs *RestServer) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"ticks":  rs.runner.Ticks(),
		"time":   time.Now().Unix(),
	})
}

// handleStats возвращает статистику генератора и процесса
func (rs *RestServer) handleStats(c *gin.Context) {
	stats := make(map[string]interface{})

	report, tickErr := rs.runner.LastReport()
	generator := map[string]interface{}{
		"ticks":       rs.runner.Ticks(),
		"failures":    rs.runner.Failures(),
		"last_report": report,
	}
	if tickErr != nil {
		generator["last_error"] = tickErr.Error()
	}
	rs.runner.View(func(gen *world.Generator) {
		generator["decided_cells"] = gen.Store().Len()
		generator["catalog_size"] = gen.Catalog().Len()
	})
	generator["render_distance"] = rs.runner.Streamer().RenderDistance()
	stats["generator"] = generator

	if rs.scene != nil {
		stats["scene"] = rs.scene.Stats()
	}
	if rs.bus != nil {
		stats["eventbus"] = rs.bus.Metrics()
	}

	server := map[string]interface{}{
		"uptime":      rs.metrics.GetUptime(),
		"server_time": time.Now().Unix(),
	}
	if cpu, err := rs.metrics.GetCPUUsage(); err == nil {
		server["cpu_percent"] = fmt.Sprintf("%.2f", cpu)
	}
	if rss, err := rs.metrics.GetRSS(); err == nil {
		server["rss_mb"] = fmt.Sprintf("%.2f", rss)
	}
	stats["server"] = server
	stats["memory_details"] = rs.metrics.GetDetailedMemoryStats()

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Статистика получена",
		Data:    stats,
	})
}

// handleTiles возвращает решённые ячейки в кубе radius вокруг центра последнего тика
func (rs *RestServer) handleTiles(c *gin.Context) {
	radius := 2
	if raw := c.Query("radius"); raw != "" {
		r, err := strconv.Atoi(raw)
		if err != nil || r < 0 || r > rs.maxRange {
			c.JSON(http.StatusBadRequest, GenericResponse{
				Success: false,
				Message: fmt.Sprintf("radius должен быть целым от 0 до %d", rs.maxRange),
			})
			return
		}
		radius = r
	}

	report, _ := rs.runner.LastReport()
	center := report.Center

	var (
		views []TileView
		err   error
	)
	rs.runner.View(func(gen *world.Generator) {
		var tiles map[vec.Vec3]world.TileInstance
		tiles, err = world.TilesWithin(gen.Store(), center, radius)
		if err != nil {
			return
		}
		views = make([]TileView, 0, len(tiles))
		for coord, inst := range tiles {
			views = append(views, viewOf(gen, coord, inst, false))
		}
	})
	if err != nil {
		rs.internalError(c, err)
		return
	}

	sort.Slice(views, func(i, j int) bool { return lessCoord(views[i].Coord, views[j].Coord) })

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: fmt.Sprintf("%d ячеек", len(views)),
		Data: gin.H{
			"center": center,
			"radius": radius,
			"tiles":  views,
		},
	})
}

// handleTile возвращает одну ячейку с мировыми соединениями граней
func (rs *RestServer) handleTile(c *gin.Context) {
	coord, err := parseCoord(c.Param("x"), c.Param("y"), c.Param("z"))
	if err != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{Success: false, Message: err.Error()})
		return
	}

	var (
		view  TileView
		found bool
	)
	rs.runner.View(func(gen *world.Generator) {
		var inst world.TileInstance
		inst, found, err = gen.Store().Get(coord)
		if err == nil && found {
			view = viewOf(gen, coord, inst, true)
		}
	})
	if err != nil {
		rs.internalError(c, err)
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, GenericResponse{Success: false, Message: "Ячейка не решена"})
		return
	}

	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Ячейка найдена", Data: view})
}

// handleDebugScan возвращает последний куб сканирования
func (rs *RestServer) handleDebugScan(c *gin.Context) {
	if rs.scan == nil {
		c.JSON(http.StatusNotFound, GenericResponse{Success: false, Message: "Отладочная отрисовка выключена"})
		return
	}
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Последний скан", Data: rs.scan.Last()})
}

// handleSnapshot отдаёт снимок карты в zstd JSON
func (rs *RestServer) handleSnapshot(c *gin.Context) {
	var (
		snap snapshot.Snapshot
		err  error
	)
	rs.runner.View(func(gen *world.Generator) {
		snap, err = snapshot.Capture(gen.Store(), gen.Spawner(), gen.Grid(), time.Now())
	})
	if err != nil {
		rs.internalError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := snapshot.Encode(&buf, snap); err != nil {
		rs.internalError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="tiles.json.zst"`)
	c.Data(http.StatusOK, "application/zstd", buf.Bytes())
}

func (rs *RestServer) internalError(c *gin.Context, err error) {
	rs.logger.Error("%s %s: %v", c.Request.Method, c.FullPath(), err)
	c.JSON(http.StatusInternalServerError, GenericResponse{Success: false, Message: "Внутренняя ошибка сервера"})
}

func parseCoord(xs, ys, zs string) (vec.Vec3, error) {
	var out [3]int
	for i, s := range []string{xs, ys, zs} {
		v, err := strconv.Atoi(s)
		if err != nil {
			return vec.Vec3{}, fmt.Errorf("неверная координата %q", s)
		}
		out[i] = v
	}
	return vec.Vec3{X: out[0], Y: out[1], Z: out[2]}, nil
}

func lessCoord(a, b vec.Vec3) bool {
	if a.Z != b.Z {
		return a.Z < b.Z
	}
	if a.Y != b.Y {
		return a.Y < b.Y
	}
	return a.X < b.X
}
