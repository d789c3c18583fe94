//go:build integration

package integration

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/bissquit/asset-desk/internal/domain"
	incidentspostgres "github.com/bissquit/asset-desk/internal/incidents/postgres"
	"github.com/bissquit/asset-desk/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// monday is a Monday at midnight UTC; seeded histories are placed relative to it.
var monday = time.Date(2024, time.January, 8, 0, 0, 0, 0, time.UTC)

func at(day, hour, minute int) time.Time {
	return monday.AddDate(0, 0, day).Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func uniqueSuffix() string {
	return uuid.NewString()[:8]
}

type userData struct {
	ID       string  `json:"id"`
	Username string  `json:"username"`
	Role     string  `json:"role"`
	Group    *string `json:"group"`
}

type equipmentData struct {
	ID             string `json:"id"`
	SerialNumber   string `json:"serial_number"`
	Model          string `json:"model"`
	Type           string `json:"type"`
	ResponseTime   string `json:"response_time"`
	ResolutionTime string `json:"resolution_time"`
	Group          string `json:"group"`
}

type incidentData struct {
	ID          string  `json:"id"`
	EquipmentID string  `json:"equipment_id"`
	Title       string  `json:"title"`
	Status      string  `json:"status"`
	AssignedTo  *string `json:"assigned_to"`
	History     []struct {
		Status    string    `json:"status"`
		Timestamp time.Time `json:"timestamp"`
		Comment   string    `json:"comment"`
	} `json:"history"`
	MaterialsUsed []struct {
		Name     string `json:"name"`
		Quantity int    `json:"quantity"`
	} `json:"materials_used"`
}

type errorBody struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func createUser(t *testing.T, client *testutil.Client, role string, group *string) userData {
	t.Helper()

	resp, err := client.POST("/api/v1/users", map[string]any{
		"username": "tech-" + uniqueSuffix(),
		"role":     role,
		"group":    group,
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var result struct {
		Data userData `json:"data"`
	}
	testutil.DecodeJSON(t, resp, &result)
	return result.Data
}

type equipmentOption func(map[string]any)

func withCategories(response, resolution string) equipmentOption {
	return func(m map[string]any) {
		m["response_time"] = response
		m["resolution_time"] = resolution
	}
}

func withGroup(group string) equipmentOption {
	return func(m map[string]any) { m["group"] = group }
}

func createEquipment(t *testing.T, client *testutil.Client, opts ...equipmentOption) equipmentData {
	t.Helper()

	payload := map[string]any{
		"serial_number":   "SN-" + uniqueSuffix(),
		"model":           "Latitude 5440",
		"manufacturer":    "Dell",
		"type":            "Portátil",
		"purchase_date":   "2023-04-12",
		"response_time":   "4horas",
		"resolution_time": "NBD",
		"group":           "Hardware",
	}
	for _, opt := range opts {
		opt(payload)
	}

	resp, err := client.POST("/api/v1/equipment", payload)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var result struct {
		Data equipmentData `json:"data"`
	}
	testutil.DecodeJSON(t, resp, &result)
	return result.Data
}

func createIncident(t *testing.T, client *testutil.Client, equipmentID string) incidentData {
	t.Helper()

	resp, err := client.POST("/api/v1/incidents", map[string]any{
		"equipment_id": equipmentID,
		"title":        "No boot",
		"description":  "Black screen after the logo",
		"comment":      "Reported by phone",
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var result struct {
		Data incidentData `json:"data"`
	}
	testutil.DecodeJSON(t, resp, &result)
	return result.Data
}

// seedIncident stores an incident with a backdated history straight through
// the repository, since the API stamps new entries with the current time.
func seedIncident(t *testing.T, equipmentID string, assignedTo *string, history ...domain.StatusEntry) string {
	t.Helper()
	require.NotEmpty(t, history)

	inc := &domain.Incident{
		ID:            uuid.NewString(),
		EquipmentID:   equipmentID,
		Title:         "Seeded " + uniqueSuffix(),
		Status:        history[len(history)-1].Status,
		History:       history,
		AssignedTo:    assignedTo,
		MaterialsUsed: []domain.Material{},
	}

	repo := incidentspostgres.NewRepository(testDB)
	require.NoError(t, repo.CreateIncident(context.Background(), inc))

	t.Cleanup(func() {
		_ = repo.DeleteIncident(context.Background(), inc.ID)
	})
	return inc.ID
}

func entry(status domain.IncidentStatus, ts time.Time) domain.StatusEntry {
	return domain.StatusEntry{Status: status, Timestamp: ts, Comment: string(status)}
}
