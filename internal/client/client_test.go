package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskboard/internal/board"
	"taskboard/internal/model"
)

func TestListTasks(t *testing.T) {
	workspaceID := uuid.New()
	task := model.Task{ID: uuid.New(), WorkspaceID: workspaceID, Name: "a", Status: model.StatusTodo, Position: 1000}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/tasks", r.URL.Path)
		assert.Equal(t, workspaceID.String(), r.URL.Query().Get("workspace_id"))
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		// Populated list fields are ignored by the client.
		_, _ = w.Write([]byte(`[{"id":"` + task.ID.String() + `","workspace_id":"` + workspaceID.String() +
			`","name":"a","status":"TODO","position":1000,"project_name":"Website"}]`))
	}))
	defer srv.Close()

	tasks, err := New(srv.URL+"/", "secret").ListTasks(context.Background(), workspaceID)

	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, task.ID, tasks[0].ID)
	assert.Equal(t, model.StatusTodo, tasks[0].Status)
	assert.Equal(t, 1000, tasks[0].Position)
}

func TestBulkUpdate_SendsBatch(t *testing.T) {
	batch := board.Batch{
		{ID: uuid.New(), Status: model.StatusDone, Position: 1000},
		{ID: uuid.New(), Status: model.StatusTodo, Position: 2000},
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/tasks/bulk-update", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body struct {
			Tasks board.Batch `json:"tasks"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, batch, body.Tasks)
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	err := New(srv.URL, "secret").BulkUpdate(context.Background(), batch)
	assert.NoError(t, err)
}

func TestBulkUpdate_SurfacesServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"Tasks must belong to the same workspace"}`))
	}))
	defer srv.Close()

	err := New(srv.URL, "secret").BulkUpdate(context.Background(), board.Batch{
		{ID: uuid.New(), Status: model.StatusDone, Position: 1000},
	})

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "Tasks must belong to the same workspace", apiErr.Message)
	assert.Contains(t, err.Error(), "400")
}

func TestListTasks_ErrorWithoutBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := New(srv.URL, "").ListTasks(context.Background(), uuid.New())

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Empty(t, apiErr.Message)
}
