package visit

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// SessionCommand is one operator action on a registration form.
type SessionCommand struct {
	Action  string    `json:"action"`
	ID      uuid.UUID `json:"id,omitempty"`
	Tanggal string    `json:"tanggal,omitempty"`
	Value   string    `json:"value,omitempty"`
}

var sessionUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins; tighten in production.
	},
}

// SessionHandler drives one registration Form per WebSocket connection. The
// client sends commands, the server applies them to the form and answers
// every command with a full snapshot, so the client never has to merge
// partial updates.
type SessionHandler struct {
	dir   PatientDirectory
	refs  ReferenceGateway
	quota QuotaReader
	reg   Registrar
	log   zerolog.Logger
}

func NewSessionHandler(dir PatientDirectory, refs ReferenceGateway, quota QuotaReader, reg Registrar, log zerolog.Logger) *SessionHandler {
	return &SessionHandler{dir: dir, refs: refs, quota: quota, reg: reg, log: log}
}

func (h *SessionHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/ws/form", h.HandleConnect)
}

// HandleConnect upgrades the connection, loads a fresh form, and serves
// commands until the client disconnects.
func (h *SessionHandler) HandleConnect(c echo.Context) error {
	ws, err := sessionUpgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer ws.Close()

	ctx := c.Request().Context()
	form := NewForm(h.dir, h.refs, h.quota, h.reg, h.log)
	if err := form.Load(ctx); err != nil {
		// The snapshot below carries the load failure to the client.
		h.log.Error().Err(err).Msg("form session load failed")
	}
	if err := ws.WriteJSON(form.Snapshot()); err != nil {
		return nil
	}

	for {
		var cmd SessionCommand
		if err := ws.ReadJSON(&cmd); err != nil {
			return nil
		}
		h.apply(ctx, form, cmd)
		form.Wait()
		if err := ws.WriteJSON(form.Snapshot()); err != nil {
			return nil
		}
	}
}

func (h *SessionHandler) apply(ctx context.Context, form *Form, cmd SessionCommand) {
	switch cmd.Action {
	case "select_patient":
		form.SelectPatient(cmd.ID)
	case "select_room":
		form.SelectRoom(ctx, cmd.ID)
	case "set_tanggal":
		t, err := time.Parse(dateLayout, cmd.Tanggal)
		if err != nil {
			return
		}
		form.SetTanggal(ctx, t)
	case "select_doctor":
		form.SelectDoctor(cmd.ID)
	case "select_payment_method":
		form.SelectPaymentMethod(cmd.ID)
	case "select_guarantor":
		form.SelectGuarantor(cmd.ID)
	case "set_pengantar":
		form.SetPengantarPasien(cmd.Value)
	case "set_telepon":
		form.SetTeleponPengantar(cmd.Value)
	case "submit":
		if _, err := form.Submit(ctx); err != nil {
			h.log.Debug().Err(err).Msg("form submit rejected")
		}
	case "reset":
		form.Reset()
	}
}
