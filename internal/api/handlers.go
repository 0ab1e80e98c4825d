package api

import (
	"log/slog"
	"net/http"
	"strconv"

	xerrors "TaskManager/internal/errors"
	"TaskManager/internal/task"
	"TaskManager/internal/view"
	"TaskManager/pkg/logger"
)

const (
	notFoundMessage = "The page you were looking for doesn't exist."
	badFormMessage  = "The submitted form could not be read."
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, view.PageDashboard, view.Data{})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.tasks.List(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, view.PageIndex, view.Data{Title: "All Tasks", Tasks: tasks})
}

func (s *Server) handleNew(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, view.PageNew, view.Data{Title: "New Task"})
}

func (s *Server) handleShow(w http.ResponseWriter, r *http.Request) {
	id, ok := taskID(r)
	if !ok {
		s.handleNotFound(w, r)
		return
	}
	found, err := s.tasks.Get(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, view.PageShow, view.Data{Title: found.Title, Task: found})
}

func (s *Server) handleEdit(w http.ResponseWriter, r *http.Request) {
	id, ok := taskID(r)
	if !ok {
		s.handleNotFound(w, r)
		return
	}
	found, err := s.tasks.Get(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, view.PageEdit, view.Data{
		Title: "Edit Task",
		Task:  found,
		Form:  view.Form{Title: found.Title, Description: found.Description},
	})
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	req, err := readTaskRequest(r)
	if err != nil {
		s.renderError(w, r, http.StatusBadRequest, badFormMessage)
		return
	}
	if _, err := s.tasks.Create(r.Context(), req); err != nil {
		if task.IsValidation(err) {
			logFailure(r, err)
			s.render(w, r, http.StatusBadRequest, view.PageNew, view.Data{
				Title: "New Task",
				Form:  view.Form{Title: req.Title, Description: req.Description},
				Error: messageOf(err),
			})
			return
		}
		s.fail(w, r, err)
		return
	}
	http.Redirect(w, r, "/tasks", http.StatusSeeOther)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := taskID(r)
	if !ok {
		s.handleNotFound(w, r)
		return
	}
	req, err := readTaskRequest(r)
	if err != nil {
		s.renderError(w, r, http.StatusBadRequest, badFormMessage)
		return
	}
	if _, err := s.tasks.Update(r.Context(), id, req); err != nil {
		if task.IsValidation(err) {
			logFailure(r, err)
			s.render(w, r, http.StatusBadRequest, view.PageEdit, view.Data{
				Title: "Edit Task",
				Task:  &task.Task{ID: id, Title: req.Title, Description: req.Description},
				Form:  view.Form{Title: req.Title, Description: req.Description},
				Error: messageOf(err),
			})
			return
		}
		s.fail(w, r, err)
		return
	}
	http.Redirect(w, r, "/tasks/"+strconv.FormatInt(id, 10), http.StatusSeeOther)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := taskID(r)
	if !ok {
		s.handleNotFound(w, r)
		return
	}
	if err := s.tasks.Delete(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	http.Redirect(w, r, "/tasks", http.StatusSeeOther)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if s.pinger != nil {
		if err := s.pinger.Ping(r.Context()); err != nil {
			logger.Named("http").Warn("健康检查失败", slog.Any("error", err))
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("unavailable"))
			return
		}
	}
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.renderError(w, r, http.StatusNotFound, notFoundMessage)
}

// fail 按错误码选择状态码并渲染错误页。
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	logFailure(r, err)
	status := xerrors.HTTPStatus(err)
	switch {
	case status >= http.StatusInternalServerError:
		s.renderError(w, r, status, "We're sorry, but something went wrong.")
	case status == http.StatusNotFound:
		s.renderError(w, r, status, notFoundMessage)
	default:
		s.renderError(w, r, status, messageOf(err))
	}
}

// logFailure 按错误码登记的严重程度选择日志级别，并附带错误元数据。
func logFailure(r *http.Request, err error) {
	attrs := []slog.Attr{
		slog.Any("error", err),
		slog.String("code", string(xerrors.CodeOf(err))),
		slog.Bool("alert", xerrors.ShouldAlert(err)),
		slog.String("request_id", RequestIDFrom(r.Context())),
		slog.String("path", r.URL.Path),
	}
	if e, ok := xerrors.From(err); ok {
		attrs = append(attrs, slog.Bool("retryable", e.Retryable()))
		for key, value := range e.Metadata() {
			attrs = append(attrs, slog.String(key, value))
		}
	}
	logger.Named("http").LogAttrs(r.Context(), logLevel(err), "请求处理失败", attrs...)
}

func logLevel(err error) slog.Level {
	switch xerrors.SeverityOf(err) {
	case xerrors.SeverityCritical:
		return slog.LevelError
	case xerrors.SeverityWarning:
		return slog.LevelWarn
	default:
		if xerrors.ShouldAlert(err) {
			return slog.LevelWarn
		}
		return slog.LevelInfo
	}
}

func (s *Server) renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	s.render(w, r, status, view.PageError, view.Data{Title: http.StatusText(status), Message: message})
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, page string, data view.Data) {
	if s.views == nil {
		http.Error(w, http.StatusText(status), status)
		return
	}
	if err := s.views.Render(w, status, page, data); err != nil {
		logger.Named("http").Error("页面渲染失败",
			slog.Any("error", err),
			slog.String("page", page),
			slog.String("request_id", RequestIDFrom(r.Context())),
		)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// taskID 解析路径中的任务 ID，非数字或非正数视为不存在。
func taskID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// readTaskRequest 同时接受 task[title] 与 title 两种字段命名。
func readTaskRequest(r *http.Request) (task.TaskRequest, error) {
	if err := r.ParseForm(); err != nil {
		return task.TaskRequest{}, err
	}
	return task.TaskRequest{
		Title:       formValue(r, "title"),
		Description: formValue(r, "description"),
	}, nil
}

func formValue(r *http.Request, name string) string {
	if values, ok := r.PostForm["task["+name+"]"]; ok && len(values) > 0 {
		return values[0]
	}
	return r.PostForm.Get(name)
}

func messageOf(err error) string {
	if e, ok := xerrors.From(err); ok {
		return e.Message()
	}
	return err.Error()
}
