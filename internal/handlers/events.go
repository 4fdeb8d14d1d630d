package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// keepAliveInterval is how often an idle stream sends a comment line.
const keepAliveInterval = 15 * time.Second

// Events streams a job's progress as server-sent events until the job ends
// or the client disconnects. The last message is always a "job" event with
// the final record, so clients that missed trimmed history still converge.
// GET /api/jobs/:id/events
func (h *JobHandler) Events(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	ch, err := h.jobs.Subscribe(ctx, id)
	if err != nil {
		return writeError(c, err)
	}

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set(echo.HeaderCacheControl, "no-cache")
	res.Header().Set(echo.HeaderConnection, "keep-alive")
	res.Header().Set("X-Accel-Buffering", "no")
	res.WriteHeader(http.StatusOK)
	res.Flush()

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case e, ok := <-ch:
			if !ok {
				return h.writeFinal(c, id)
			}
			if err := writeSSE(res, fmt.Sprint(e.Seq), string(e.Type), e); err != nil {
				return nil
			}
		case <-ticker.C:
			if _, err := fmt.Fprint(res, ": keep-alive\n\n"); err != nil {
				return nil
			}
			res.Flush()
		case <-ctx.Done():
			return nil
		}
	}
}

// writeFinal sends the current job record once the event channel closes.
func (h *JobHandler) writeFinal(c echo.Context, id string) error {
	if c.Request().Context().Err() != nil {
		return nil
	}
	job, err := h.jobs.Status(c.Request().Context(), id)
	if err != nil {
		return nil
	}
	_ = writeSSE(c.Response(), "", "job", job)
	return nil
}

func writeSSE(res *echo.Response, id, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if id != "" {
		if _, err := fmt.Fprintf(res, "id: %s\n", id); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(res, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return err
	}
	res.Flush()
	return nil
}
