package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"floorplan-engine/internal/common/middleware"
	"floorplan-engine/internal/planner/editor"
	"floorplan-engine/internal/planner/mapper"
	"floorplan-engine/internal/planner/models"
	"floorplan-engine/internal/planner/regions"
	"floorplan-engine/internal/planner/repository"
	"floorplan-engine/internal/planner/service"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

// ============================================================
// Plan Handler
// ============================================================

type PlanHandler struct {
	repo        *repository.Repository
	sessions    *service.SessionManager
	storage     *service.FileStorage
	importer    *mapper.Importer
	renderer    *mapper.Renderer
	rasterizer  *mapper.Rasterizer
	eraseRadius float64
}

func NewPlanHandler(repo *repository.Repository, sessions *service.SessionManager, storage *service.FileStorage, wallWidth, eraseRadius float64) *PlanHandler {
	return &PlanHandler{
		repo:        repo,
		sessions:    sessions,
		storage:     storage,
		importer:    mapper.NewImporter(wallWidth),
		renderer:    mapper.NewRenderer(),
		rasterizer:  mapper.NewRasterizer(0),
		eraseRadius: eraseRadius,
	}
}

// Register вешает маршруты плана на группу (обычно /api/v1).
func (h *PlanHandler) Register(r fiber.Router) {
	r.Post("/plans", h.Create)
	r.Get("/plans", h.List)
	r.Get("/plans/:id", h.State)

	r.Post("/plans/:id/draw", h.Draw)
	r.Post("/plans/:id/drag/start", h.DragStart)
	r.Post("/plans/:id/drag/move", h.DragMove)
	r.Post("/plans/:id/drag/end", h.DragEnd)
	r.Post("/plans/:id/drag/cancel", h.DragCancel)
	r.Post("/plans/:id/erase", h.Erase)
	r.Post("/plans/:id/undo", h.Undo)
	r.Post("/plans/:id/redo", h.Redo)
	r.Post("/plans/:id/clear", h.Clear)
	r.Put("/plans/:id/markers", h.SetMarkers)

	r.Post("/plans/:id/snap", h.Snap)
	r.Post("/plans/:id/locate", h.Locate)

	r.Post("/plans/:id/save", h.Save)
	r.Post("/plans/:id/reload", h.Reload)
	r.Post("/plans/:id/import", h.Import)
	r.Post("/plans/:id/export/:format", h.Export)
	r.Get("/plans/:id/render/:format", h.Render)
}

// ============================================================
// Payloads
// ============================================================

type createRequest struct {
	Name string `json:"name"`
}

type pointRequest struct {
	Point     models.Point     `json:"point"`
	Modifiers editor.Modifiers `json:"modifiers"`
}

type drawRequest struct {
	Start     models.Point     `json:"start"`
	End       models.Point     `json:"end"`
	Modifiers editor.Modifiers `json:"modifiers"`
}

type eraseRequest struct {
	Point  models.Point `json:"point"`
	Radius float64      `json:"radius"`
}

type statePayload struct {
	PlanID   string           `json:"planId"`
	Segments []models.Segment `json:"segments"`
	Regions  regions.Result   `json:"regions"`
	Markers  []models.Marker  `json:"markers"`
	CanUndo  bool             `json:"canUndo"`
	CanRedo  bool             `json:"canRedo"`
	Dragging bool             `json:"dragging"`
}

func mapState(planID string, e *editor.Editor) statePayload {
	doc := e.Document()
	res := e.Regions()
	if res.Interior == nil {
		res.Interior = []models.Region{}
	}
	if res.Exterior == nil {
		res.Exterior = []models.Region{}
	}
	return statePayload{
		PlanID:   planID,
		Segments: doc.Segments,
		Regions:  res,
		Markers:  doc.Markers,
		CanUndo:  e.CanUndo(),
		CanRedo:  e.CanRedo(),
		Dragging: e.Dragging(),
	}
}

// ============================================================
// Plans
// ============================================================

// Create заводит новый пустой план.
func (h *PlanHandler) Create(c fiber.Ctx) error {
	var req createRequest
	if len(c.Body()) > 0 {
		if err := json.Unmarshal(c.Body(), &req); err != nil {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid json"})
		}
	}
	if req.Name == "" {
		req.Name = "Untitled plan"
	}

	plan, s, err := h.sessions.Create(context.Background(), req.Name)
	if err != nil {
		log.Printf("[PLANS] create failed: %v", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to create plan"})
	}

	return s.Do(func(e *editor.Editor) error {
		return c.Status(http.StatusCreated).JSON(fiber.Map{
			"plan":  plan,
			"state": mapState(plan.ID, e),
		})
	})
}

func (h *PlanHandler) List(c fiber.Ctx) error {
	plans, err := h.repo.List(context.Background())
	if err != nil {
		log.Printf("[PLANS] list failed: %v", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to list plans"})
	}
	return c.JSON(fiber.Map{"plans": plans})
}

func (h *PlanHandler) State(c fiber.Ctx) error {
	return h.edit(c, func(id string, e *editor.Editor) error {
		return c.JSON(mapState(id, e))
	})
}

// ============================================================
// Editing
// ============================================================

func (h *PlanHandler) Draw(c fiber.Ctx) error {
	var req drawRequest
	if err := decodeBody(c, &req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return h.edit(c, func(id string, e *editor.Editor) error {
		changed := e.Draw(req.Start, req.End, req.Modifiers)
		return c.JSON(fiber.Map{"changed": changed, "state": mapState(id, e)})
	})
}

func (h *PlanHandler) DragStart(c fiber.Ctx) error {
	var req pointRequest
	if err := decodeBody(c, &req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return h.edit(c, func(id string, e *editor.Editor) error {
		origin, ok := e.BeginDrag(req.Point)
		return c.JSON(fiber.Map{"grabbed": ok, "origin": origin})
	})
}

// DragMove отдаёт только превью; хранилище стен не меняется.
func (h *PlanHandler) DragMove(c fiber.Ctx) error {
	var req pointRequest
	if err := decodeBody(c, &req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return h.edit(c, func(id string, e *editor.Editor) error {
		if !e.Dragging() {
			return c.Status(http.StatusConflict).JSON(fiber.Map{"error": "no drag in progress"})
		}
		return c.JSON(fiber.Map{"preview": e.DragTo(req.Point, req.Modifiers)})
	})
}

func (h *PlanHandler) DragEnd(c fiber.Ctx) error {
	var req pointRequest
	if err := decodeBody(c, &req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return h.edit(c, func(id string, e *editor.Editor) error {
		if !e.Dragging() {
			return c.Status(http.StatusConflict).JSON(fiber.Map{"error": "no drag in progress"})
		}
		changed := e.EndDrag(req.Point, req.Modifiers)
		return c.JSON(fiber.Map{"changed": changed, "state": mapState(id, e)})
	})
}

func (h *PlanHandler) DragCancel(c fiber.Ctx) error {
	return h.edit(c, func(id string, e *editor.Editor) error {
		e.CancelDrag()
		return c.JSON(mapState(id, e))
	})
}

func (h *PlanHandler) Erase(c fiber.Ctx) error {
	var req eraseRequest
	if err := decodeBody(c, &req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if req.Radius <= 0 {
		req.Radius = h.eraseRadius
	}
	return h.edit(c, func(id string, e *editor.Editor) error {
		removed := e.EraseAt(req.Point, req.Radius)
		return c.JSON(fiber.Map{"removed": removed, "state": mapState(id, e)})
	})
}

func (h *PlanHandler) Undo(c fiber.Ctx) error {
	return h.edit(c, func(id string, e *editor.Editor) error {
		changed := e.Undo()
		return c.JSON(fiber.Map{"changed": changed, "state": mapState(id, e)})
	})
}

func (h *PlanHandler) Redo(c fiber.Ctx) error {
	return h.edit(c, func(id string, e *editor.Editor) error {
		changed := e.Redo()
		return c.JSON(fiber.Map{"changed": changed, "state": mapState(id, e)})
	})
}

func (h *PlanHandler) Clear(c fiber.Ctx) error {
	return h.edit(c, func(id string, e *editor.Editor) error {
		changed := e.Clear()
		return c.JSON(fiber.Map{"changed": changed, "state": mapState(id, e)})
	})
}

// SetMarkers заменяет маркеры целиком; маркерам без id выдаётся uuid.
func (h *PlanHandler) SetMarkers(c fiber.Ctx) error {
	var markers []models.Marker
	if err := decodeBody(c, &markers); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	for i := range markers {
		if markers[i].ID == "" {
			markers[i].ID = uuid.NewString()
		}
	}
	return h.edit(c, func(id string, e *editor.Editor) error {
		e.SetMarkers(markers)
		return c.JSON(mapState(id, e))
	})
}

// ============================================================
// Queries
// ============================================================

func (h *PlanHandler) Snap(c fiber.Ctx) error {
	var req pointRequest
	if err := decodeBody(c, &req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return h.edit(c, func(id string, e *editor.Editor) error {
		return c.JSON(e.SnapPoint(req.Point, req.Modifiers))
	})
}

// Locate ищет комнату под точкой (например, под датчиком).
func (h *PlanHandler) Locate(c fiber.Ctx) error {
	var req pointRequest
	if err := decodeBody(c, &req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return h.edit(c, func(id string, e *editor.Editor) error {
		region, ok := regions.Locate(e.Regions().Interior, req.Point)
		if !ok {
			return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "no room at point"})
		}
		return c.JSON(region)
	})
}

// ============================================================
// Persistence
// ============================================================

// Save: ошибка хранилища не откатывает состояние, клиент получает 502.
func (h *PlanHandler) Save(c fiber.Ctx) error {
	return h.edit(c, func(id string, e *editor.Editor) error {
		if err := e.Save(context.Background(), h.sessions.Store(id)); err != nil {
			log.Printf("[PLANS] save %s failed: %v", id, err)
			return c.Status(http.StatusBadGateway).JSON(fiber.Map{"error": "save failed"})
		}
		log.Printf("[PLANS] saved %s", id)
		return c.JSON(fiber.Map{"saved": true})
	})
}

// Reload отбрасывает несохранённые правки и историю.
func (h *PlanHandler) Reload(c fiber.Ctx) error {
	return h.edit(c, func(id string, e *editor.Editor) error {
		if err := e.Load(context.Background(), h.sessions.Store(id)); err != nil {
			log.Printf("[PLANS] reload %s failed: %v", id, err)
			return c.Status(http.StatusBadGateway).JSON(fiber.Map{"error": "reload failed"})
		}
		return c.JSON(mapState(id, e))
	})
}

// Import принимает SVG файлом (multipart, поле file) или телом запроса.
func (h *PlanHandler) Import(c fiber.Ctx) error {
	data, err := readUpload(c)
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	segments, err := h.importer.Import(bytes.NewReader(data))
	if err != nil {
		log.Printf("[IMPORT] %v", err)
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	return h.edit(c, func(id string, e *editor.Editor) error {
		added := e.AddSegments(segments)
		return c.JSON(fiber.Map{"imported": len(segments), "added": added, "state": mapState(id, e)})
	})
}

// Export пишет отрисовку в каталог экспорта и возвращает путь.
func (h *PlanHandler) Export(c fiber.Ctx) error {
	format := c.Params("format")
	return h.edit(c, func(id string, e *editor.Editor) error {
		data, _, err := h.render(format, e)
		if err != nil {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		path, err := h.storage.SaveExport(id, format, data)
		if err != nil {
			log.Printf("[PLANS] export %s failed: %v", id, err)
			return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "export failed"})
		}
		return c.JSON(fiber.Map{"format": format, "path": path})
	})
}

func (h *PlanHandler) Render(c fiber.Ctx) error {
	format := c.Params("format")
	return h.edit(c, func(id string, e *editor.Editor) error {
		data, contentType, err := h.render(format, e)
		if err != nil {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		c.Set("Content-Type", contentType)
		return c.Send(data)
	})
}

func (h *PlanHandler) render(format string, e *editor.Editor) ([]byte, string, error) {
	scene := mapper.NewScene(e.Segments(), e.Regions(), e.Markers())

	switch format {
	case "svg":
		return []byte(h.renderer.Render(scene)), "image/svg+xml", nil
	case "png":
		var buf bytes.Buffer
		if err := h.rasterizer.RenderPNG(&buf, scene); err != nil {
			return nil, "", err
		}
		return buf.Bytes(), "image/png", nil
	case "geojson":
		data, err := mapper.RenderGeoJSON(scene)
		if err != nil {
			return nil, "", err
		}
		return data, "application/geo+json", nil
	}
	return nil, "", fmt.Errorf("unsupported format %q", format)
}

// ============================================================
// Helpers
// ============================================================

// edit открывает сессию плана и выполняет fn под её мьютексом.
func (h *PlanHandler) edit(c fiber.Ctx, fn func(id string, e *editor.Editor) error) error {
	id := c.Params("id")
	c.Locals(middleware.PlanLocal, id)

	s, err := h.sessions.Open(context.Background(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "plan not found"})
		}
		log.Printf("[PLANS] open %s failed: %v", id, err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to open plan"})
	}

	return s.Do(func(e *editor.Editor) error {
		return fn(id, e)
	})
}

func decodeBody(c fiber.Ctx, v any) error {
	if len(c.Body()) == 0 {
		return fmt.Errorf("empty body")
	}
	if err := json.Unmarshal(c.Body(), v); err != nil {
		return fmt.Errorf("invalid json")
	}
	return nil
}

func readUpload(c fiber.Ctx) ([]byte, error) {
	file, err := c.FormFile("file")
	if err != nil {
		if len(c.Body()) == 0 {
			return nil, fmt.Errorf("svg required as body or multipart field file")
		}
		return c.Body(), nil
	}

	f, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open file")
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read file")
	}
	return data, nil
}
