package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/hashicorp-forge/mongobridge/internal/server"
	"github.com/hashicorp-forge/mongobridge/pkg/audit"
)

// CommandResponse is the body of POST /command.
type CommandResponse struct {
	Database string          `json:"database"`
	Result   json.RawMessage `json:"result"`
}

// CommandHandler runs an arbitrary database command.
func CommandHandler(srv server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req CommandRequest
		if err := decodeRequest(r, &req); err != nil {
			writeError(srv, w, r, "Command", err)
			return
		}

		cmd, err := srv.Codec.DecodeDocument(req.Command)
		if err != nil {
			writeError(srv, w, r, "Command", fmt.Errorf("command: %w", err))
			return
		}
		if len(cmd) == 0 {
			writeError(srv, w, r, "Command", validationErrorf("command: cannot be empty"))
			return
		}

		db := req.EffectiveDatabase()
		res, err := srv.Backend.RunCommand(r.Context(), db, cmd)
		if err != nil {
			writeError(srv, w, r, "Command", backendError(err))
			return
		}

		out, err := srv.Codec.Encode(res)
		if err != nil {
			writeError(srv, w, r, "Command", err)
			return
		}

		// The command name is the first key of the command document.
		recordAudit(srv, r, audit.OpCommand, db, "", 0, cmd[0].Key)

		respondJSON(srv, w, http.StatusOK, CommandResponse{
			Database: db,
			Result:   out,
		})
	})
}
