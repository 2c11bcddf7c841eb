package store

import (
	"fmt"

	"github.com/felixgeelhaar/steamrec/internal/runtime"
)

// Recorder returns an event handler that writes finished, rejected and
// stale calls to the call log. Started events are not recorded.
// Write failures are passed to onErr, which may be nil.
func Recorder(s Storage, service string, onErr func(error)) runtime.EventHandler {
	return func(e runtime.Event) {
		var outcome string
		switch e.Type {
		case runtime.EventCallSucceeded:
			outcome = "succeeded"
		case runtime.EventCallFailed:
			outcome = "failed"
		case runtime.EventCallRejected:
			outcome = "rejected"
		case runtime.EventCallStale:
			outcome = "stale"
		default:
			return
		}

		call := &Call{
			Kind:       e.Kind,
			Outcome:    outcome,
			RecordedAt: e.Timestamp,
			Detail:     map[string]string{"service": service},
		}
		for k, v := range e.Data {
			switch k {
			case "steam_id":
				call.SteamID, _ = v.(string)
			case "message":
				call.Message, _ = v.(string)
			case "items":
				call.ItemCount, _ = v.(int)
			case "elapsed_ms":
				call.ElapsedMS, _ = v.(int64)
			default:
				call.Detail[k] = fmt.Sprint(v)
			}
		}

		if err := s.RecordCall(call); err != nil && onErr != nil {
			onErr(err)
		}
	}
}
