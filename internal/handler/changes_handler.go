package handler

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/ldm616/justus-sub000/internal/access"
	"github.com/ldm616/justus-sub000/internal/middleware"
	"github.com/ldm616/justus-sub000/internal/service"
	"github.com/ldm616/justus-sub000/pkg/logger"
	"github.com/valyala/fasthttp"
)

// ChangesHandler streams the caller's family change notifications as
// server-sent events. Frames are refetch hints; clients reload the affected
// table rather than trusting the payload.
type ChangesHandler struct {
	families   FamilyService
	subscriber ChangeSubscriber
	heartbeat  time.Duration
}

func NewChangesHandler(families FamilyService, subscriber ChangeSubscriber, heartbeat time.Duration) *ChangesHandler {
	if heartbeat <= 0 {
		heartbeat = 25 * time.Second
	}
	return &ChangesHandler{
		families:   families,
		subscriber: subscriber,
		heartbeat:  heartbeat,
	}
}

func (h *ChangesHandler) Stream(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	m, err := h.families.Membership(c.UserContext(), userID)
	if err != nil {
		return writeError(c, err)
	}
	if !access.CanRead(m, m.FamilyID) {
		return writeError(c, service.ErrNotAuthorized)
	}

	// The stream outlives the handler, so it gets its own context.
	ctx, cancel := context.WithCancel(context.Background())
	changes, err := h.subscriber.Subscribe(ctx, m.FamilyID)
	if err != nil {
		cancel()
		return writeError(c, err)
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	familyID := m.FamilyID
	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer cancel()
		ticker := time.NewTicker(h.heartbeat)
		defer ticker.Stop()

		fmt.Fprint(w, ": connected\n\n")
		if err := w.Flush(); err != nil {
			return
		}

		for {
			select {
			case change, ok := <-changes:
				if !ok {
					return
				}
				payload, err := json.Marshal(change)
				if err != nil {
					logger.Log.Errorw("Change encode failed", "family_id", familyID, "err", err)
					continue
				}
				fmt.Fprintf(w, "event: change\ndata: %s\n\n", payload)
			case <-ticker.C:
				if !h.canStillRead(ctx, userID, familyID) {
					fmt.Fprint(w, "event: revoked\ndata: {}\n\n")
					w.Flush()
					return
				}
				fmt.Fprint(w, ": heartbeat\n\n")
			}
			if err := w.Flush(); err != nil {
				logger.Log.Debugw("Change stream closed", "user_id", userID, "family_id", familyID)
				return
			}
		}
	}))
	return nil
}

// canStillRead re-resolves the caller's membership so a suspension or family
// change ends the stream at the next heartbeat. Lookup errors end it too;
// clients reconnect and are checked again.
func (h *ChangesHandler) canStillRead(ctx context.Context, userID, familyID uuid.UUID) bool {
	m, err := h.families.Membership(ctx, userID)
	if err != nil {
		logger.Log.Infow("Change stream membership check failed", "user_id", userID, "family_id", familyID, "err", err)
		return false
	}
	if !access.CanRead(m, familyID) {
		logger.Log.Infow("Change stream revoked", "user_id", userID, "family_id", familyID)
		return false
	}
	return true
}
