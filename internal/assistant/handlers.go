package assistant

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/Osama-Null/growmesh-API/internal/auth"
	"github.com/Osama-Null/growmesh-API/internal/ledger"
)

func readMessage(w http.ResponseWriter, r *http.Request) (string, bool) {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return "", false
	}
	if body.Message == "" {
		http.Error(w, "message required", http.StatusBadRequest)
		return "", false
	}
	return body.Message, true
}

func writeReply(w http.ResponseWriter, reply string, err error) {
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		http.Error(w, "agent unavailable: "+err.Error(), http.StatusBadGateway)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"response": reply,
	})
}

func HomeAgentHandler(svc *ledger.Service, client *Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		msg, ok := readMessage(w, r)
		if !ok {
			return
		}

		snap, err := homeSnapshot(r.Context(), svc, uid)
		if err != nil {
			writeReply(w, "", err)
			return
		}
		snap["message"] = msg

		reply, err := client.Ask(r.Context(), "home-agent", snap)
		writeReply(w, reply, err)
	}
}

func AllGoalsAgentHandler(svc *ledger.Service, client *Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		msg, ok := readMessage(w, r)
		if !ok {
			return
		}

		goals, err := svc.Goals(r.Context(), uid)
		if err != nil {
			writeReply(w, "", err)
			return
		}

		reply, err := client.Ask(r.Context(), "all-goals-agent", map[string]any{
			"message": msg,
			"goals":   goalSnapshots(goals),
		})
		writeReply(w, reply, err)
	}
}

func GoalDetailsAgentHandler(svc *ledger.Service, client *Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		goalID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
		if err != nil {
			http.Error(w, "invalid goal id", http.StatusBadRequest)
			return
		}
		msg, ok := readMessage(w, r)
		if !ok {
			return
		}

		g, err := svc.Goal(r.Context(), uid, goalID)
		if err != nil {
			writeReply(w, "", err)
			return
		}
		txns, err := svc.GoalTransactions(r.Context(), uid, goalID)
		if err != nil {
			writeReply(w, "", err)
			return
		}

		reply, err := client.Ask(r.Context(), "goal-details-agent", map[string]any{
			"message":      msg,
			"goal":         goalSnapshot(g),
			"transactions": transactionSnapshots(txns),
		})
		writeReply(w, reply, err)
	}
}

func TransactionsAgentHandler(svc *ledger.Service, client *Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		msg, ok := readMessage(w, r)
		if !ok {
			return
		}

		txns, err := svc.Transactions(r.Context(), uid)
		if err != nil {
			writeReply(w, "", err)
			return
		}

		reply, err := client.Ask(r.Context(), "transactions-agent", map[string]any{
			"message":      msg,
			"transactions": transactionSnapshots(txns),
		})
		writeReply(w, reply, err)
	}
}
