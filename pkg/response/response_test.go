package response

import (
	"encoding/json"
	"net/http"
	"testing"
)

func TestSuccess(t *testing.T) {
	resp := Success(map[string]int{"count": 3})
	if !resp.Success {
		t.Error("expected success true")
	}
	if resp.Error != nil {
		t.Error("success response must not carry an error")
	}

	body, err := json.Marshal(resp)
	if err != nil {
		t.Fatal(err)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(body, &decoded); err != nil {
		t.Fatal(err)
	}
	if _, present := decoded["error"]; present {
		t.Error("error key should be omitted from success envelope")
	}
}

func TestError(t *testing.T) {
	resp := Error(ErrCodeEventFull, "Event is at capacity")
	if resp.Success {
		t.Error("expected success false")
	}
	if resp.Error == nil || resp.Error.Code != ErrCodeEventFull {
		t.Errorf("unexpected error info: %+v", resp.Error)
	}
	if resp.Data != nil {
		t.Error("error response must not carry data")
	}
}

func TestGetHTTPStatus(t *testing.T) {
	cases := []struct {
		code string
		want int
	}{
		{ErrCodeEventFull, http.StatusConflict},
		{ErrCodeAlreadyRSVPed, http.StatusConflict},
		{ErrCodeNotRSVPed, http.StatusConflict},
		{ErrCodeEventNotFound, http.StatusNotFound},
		{ErrCodeEventInPast, http.StatusUnprocessableEntity},
		{ErrCodeNotOwner, http.StatusForbidden},
		{ErrCodeInconsistentState, http.StatusInternalServerError},
		{ErrCodeTransient, http.StatusServiceUnavailable},
		{ErrCodeInvalidCredentials, http.StatusUnauthorized},
		{ErrCodeEmailTaken, http.StatusConflict},
		{"SOMETHING_UNKNOWN", http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := GetHTTPStatus(tc.code); got != tc.want {
			t.Errorf("%s: expected %d, got %d", tc.code, tc.want, got)
		}
	}
}

func TestPaginated(t *testing.T) {
	resp := Paginated([]int{1, 2, 3}, 1, 20, 45)
	if resp.Meta == nil {
		t.Fatal("expected meta on paginated response")
	}
	if resp.Meta.TotalPages != 3 {
		t.Errorf("expected 3 total pages, got %d", resp.Meta.TotalPages)
	}
	if resp.Meta.Total != 45 {
		t.Errorf("expected total 45, got %d", resp.Meta.Total)
	}
}
