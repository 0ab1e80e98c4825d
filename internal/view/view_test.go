package view

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"TaskManager/internal/task"
)

func TestRenderPages(t *testing.T) {
	renderer, err := New()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}

	sample := &task.Task{ID: 5, Title: "Buy <milk>", Description: "2 litres"}
	cases := []struct {
		page string
		data Data
		want []string
	}{
		{PageDashboard, Data{}, []string{"Welcome to the Task Manager"}},
		{PageIndex, Data{Tasks: []*task.Task{sample}}, []string{`href="/tasks/5"`, "Buy &lt;milk&gt;"}},
		{PageIndex, Data{}, []string{"No tasks yet."}},
		{PageShow, Data{Task: sample}, []string{"2 litres", `name="_method" value="DELETE"`, "/tasks/5/edit"}},
		{PageNew, Data{Error: "title can't be blank"}, []string{`action="/tasks"`, "title can&#39;t be blank"}},
		{PageEdit, Data{Task: sample, Form: Form{Title: sample.Title}}, []string{`action="/tasks/5"`, `value="PUT"`, `value="Buy &lt;milk&gt;"`}},
		{PageError, Data{Message: "Page not found"}, []string{"Page not found"}},
	}

	for _, tc := range cases {
		rec := httptest.NewRecorder()
		if err := renderer.Render(rec, http.StatusOK, tc.page, tc.data); err != nil {
			t.Fatalf("render %s: %v", tc.page, err)
		}
		if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
			t.Fatalf("%s: unexpected content type %q", tc.page, ct)
		}
		body := rec.Body.String()
		for _, want := range tc.want {
			if !strings.Contains(body, want) {
				t.Fatalf("%s: body missing %q:\n%s", tc.page, want, body)
			}
		}
	}
}

func TestRenderUsesStatus(t *testing.T) {
	renderer, err := New()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	rec := httptest.NewRecorder()
	if err := renderer.Render(rec, http.StatusNotFound, PageError, Data{Message: "Page not found"}); err != nil {
		t.Fatalf("render: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
}

func TestRenderUnknownPage(t *testing.T) {
	renderer, err := New()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	rec := httptest.NewRecorder()
	if err := renderer.Render(rec, http.StatusOK, "missing", Data{}); err == nil {
		t.Fatalf("expected error for unknown page")
	}
	if rec.Body.Len() != 0 {
		t.Fatalf("nothing should be written on failure")
	}
}
