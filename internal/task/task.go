package task

import (
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	xerrors "TaskManager/internal/errors"
)

// MaxFieldLength 与 tasks 表中 VARCHAR(64) 的列宽保持一致。
const MaxFieldLength = 64

// Task 描述一条待办任务。ID 由存储分配，创建后不可变。
type Task struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// TaskRequest 是表单提交在边界处解析出的强类型请求。
type TaskRequest struct {
	Title       string
	Description string
}

const (
	CodeTaskNotFound   xerrors.Code = "TASK_NOT_FOUND"
	CodeTaskValidation xerrors.Code = "TASK_VALIDATION_FAILED"
)

// ErrTaskNotFound 表示指定的任务不存在。
var ErrTaskNotFound = xerrors.New(CodeTaskNotFound, "task not found")

func init() {
	xerrors.Register(CodeTaskNotFound, xerrors.Attributes{
		Message:    "task not found",
		Severity:   xerrors.SeverityInfo,
		HTTPStatus: http.StatusNotFound,
	})
	xerrors.Register(CodeTaskValidation, xerrors.Attributes{
		Message:    "task validation failed",
		Severity:   xerrors.SeverityInfo,
		HTTPStatus: http.StatusBadRequest,
	})
}

// Validate 检查请求是否满足存储约束：标题不能为空，字段不超过 64 个字符。
func (r TaskRequest) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return xerrors.New(CodeTaskValidation, "title can't be blank",
			xerrors.WithMetadata("field", "title"))
	}
	return checkLengths(r.Title, r.Description)
}

func checkLengths(title, description string) error {
	if utf8.RuneCountInString(title) > MaxFieldLength {
		return xerrors.New(CodeTaskValidation, fmt.Sprintf("title is too long (maximum is %d characters)", MaxFieldLength),
			xerrors.WithMetadata("field", "title"))
	}
	if utf8.RuneCountInString(description) > MaxFieldLength {
		return xerrors.New(CodeTaskValidation, fmt.Sprintf("description is too long (maximum is %d characters)", MaxFieldLength),
			xerrors.WithMetadata("field", "description"))
	}
	return nil
}

// IsNotFound 判断错误是否表示任务不存在。
func IsNotFound(err error) bool {
	code := xerrors.CodeOf(err)
	return code == CodeTaskNotFound || code == xerrors.CodeNotFound
}

// IsValidation 判断错误是否为校验失败。
func IsValidation(err error) bool {
	return xerrors.CodeOf(err) == CodeTaskValidation
}

func cloneTask(task *Task) *Task {
	clone := *task
	return &clone
}
