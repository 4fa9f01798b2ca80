package handler

import (
	"encoding/json"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundpass/soundpass/internal/audit"
	"github.com/soundpass/soundpass/internal/model"
)

func validate(t *testing.T, h *ValidationHandler, number string) (int, validateResp) {
	t.Helper()
	c, rec := newJSONCtx(http.MethodPost, "/v1/validate", `{"ticket_number":"`+number+`"}`)
	require.NoError(t, h.Validate(c))
	var resp validateResp
	if rec.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec.Code, resp
}

func TestValidateUnknownTicket(t *testing.T) {
	h := NewValidationHandler(newFakeTicketStore(), audit.NewRecentLog(10))

	code, resp := validate(t, h, "EVT9-DEADBEEF")
	assert.Equal(t, http.StatusOK, code, "a completed scan answers 200 even for a bad code")
	assert.Equal(t, audit.ResultInvalid, resp.Result)
	assert.Equal(t, "ticket not found", resp.Reason)
	assert.Nil(t, resp.Ticket)
}

func TestValidateRoundTrip(t *testing.T) {
	tickets := newFakeTicketStore()
	seeded := tickets.seed(model.Ticket{
		EventID:      1,
		UserID:       5,
		TicketNumber: "EVT1-0A0B0C0D",
		Status:       model.TicketValid,
	})
	h := NewValidationHandler(tickets, audit.NewRecentLog(10))

	code, resp := validate(t, h, seeded.TicketNumber)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, audit.ResultValid, resp.Result)
	require.NotNil(t, resp.Ticket)
	assert.Equal(t, model.TicketUsed, resp.Ticket.Status)
	assert.Equal(t, model.TicketUsed, tickets.status(seeded.ID))

	// Presenting the same code again is already_used, not valid.
	code, resp = validate(t, h, seeded.TicketNumber)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, audit.ResultAlreadyUsed, resp.Result)
}

func TestValidateCancelledTicket(t *testing.T) {
	tickets := newFakeTicketStore()
	seeded := tickets.seed(model.Ticket{
		EventID:      1,
		TicketNumber: "EVT1-11223344",
		Status:       model.TicketCancelled,
	})
	h := NewValidationHandler(tickets, audit.NewRecentLog(10))

	code, resp := validate(t, h, seeded.TicketNumber)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, audit.ResultInvalid, resp.Result)
	assert.Equal(t, "ticket cancelled", resp.Reason)
	assert.Equal(t, model.TicketCancelled, tickets.status(seeded.ID), "a cancelled ticket is never mutated by a scan")
}

func TestValidateConcurrentScansSingleWinner(t *testing.T) {
	tickets := newFakeTicketStore()
	seeded := tickets.seed(model.Ticket{
		EventID:      2,
		TicketNumber: "EVT2-CAFEF00D",
		Status:       model.TicketValid,
	})
	h := NewValidationHandler(tickets, audit.NewRecentLog(100))

	const scans = 32
	results := make([]audit.Result, scans)
	var wg sync.WaitGroup
	wg.Add(scans)
	for i := 0; i < scans; i++ {
		go func(i int) {
			defer wg.Done()
			c, rec := newJSONCtx(http.MethodPost, "/v1/validate",
				`{"ticket_number":"`+seeded.TicketNumber+`"}`)
			if err := h.Validate(c); err != nil {
				return
			}
			var resp validateResp
			if json.Unmarshal(rec.Body.Bytes(), &resp) == nil {
				results[i] = resp.Result
			}
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, r := range results {
		switch r {
		case audit.ResultValid:
			winners++
		case audit.ResultAlreadyUsed:
		default:
			t.Fatalf("unexpected result %q", r)
		}
	}
	assert.Equal(t, 1, winners, "exactly one concurrent scan may win")
	assert.Equal(t, model.TicketUsed, tickets.status(seeded.ID))
}

func TestValidateRejectsEmptyNumber(t *testing.T) {
	h := NewValidationHandler(newFakeTicketStore(), audit.NewRecentLog(10))
	c, rec := newJSONCtx(http.MethodPost, "/v1/validate", `{"ticket_number":"   "}`)
	require.NoError(t, h.Validate(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRecentValidationsMostRecentFirst(t *testing.T) {
	tickets := newFakeTicketStore()
	a := tickets.seed(model.Ticket{EventID: 1, TicketNumber: "EVT1-000000AA", Status: model.TicketValid})
	b := tickets.seed(model.Ticket{EventID: 1, TicketNumber: "EVT1-000000BB", Status: model.TicketValid})
	h := NewValidationHandler(tickets, audit.NewRecentLog(10))

	validate(t, h, a.TicketNumber)
	validate(t, h, b.TicketNumber)
	validate(t, h, "EVT1-NOPE0000")

	c, rec := newJSONCtx(http.MethodGet, "/v1/validate/recent", "")
	require.NoError(t, h.RecentValidations(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Validations []audit.Entry `json:"validations"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Validations, 3)
	assert.Equal(t, "EVT1-NOPE0000", resp.Validations[0].TicketNumber)
	assert.Equal(t, audit.ResultInvalid, resp.Validations[0].Result)
	assert.Equal(t, b.TicketNumber, resp.Validations[1].TicketNumber)
	assert.Equal(t, a.TicketNumber, resp.Validations[2].TicketNumber)
}
