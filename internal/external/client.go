// Package external клиент основного API школы. Планировщик не владеет
// преподавателями, курсами и правами — он только спрашивает о них
package external

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Client реализует service.Directory и service.Authorizer поверх HTTP
type Client struct {
	http   *resty.Client
	logger *zap.Logger
}

func NewClient(baseURL string, logger *zap.Logger) *Client {
	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(5 * time.Second).
		SetRetryCount(2)

	return &Client{
		http:   httpClient,
		logger: logger,
	}
}

// TeacherExists проверяет что преподаватель существует и активен
func (c *Client) TeacherExists(ctx context.Context, teacherID string) (bool, error) {
	return c.exists(ctx, "/api/teachers/{id}", teacherID)
}

// CourseExists проверяет что курс существует
func (c *Client) CourseExists(ctx context.Context, courseID string) (bool, error) {
	return c.exists(ctx, "/api/courses/{id}", courseID)
}

type permissionsResponse struct {
	CanManageSchedule bool `json:"can_manage_schedule"`
	CanAutoApprove    bool `json:"can_auto_approve"`
}

// CanManageSchedule проверяет право актора управлять расписанием
func (c *Client) CanManageSchedule(ctx context.Context, actorID string) (bool, error) {
	perms, err := c.permissions(ctx, actorID)
	if err != nil {
		return false, err
	}
	return perms.CanManageSchedule, nil
}

// CanAutoApprove проверяет право актора на автосогласование слотов
func (c *Client) CanAutoApprove(ctx context.Context, actorID string) (bool, error) {
	perms, err := c.permissions(ctx, actorID)
	if err != nil {
		return false, err
	}
	return perms.CanAutoApprove, nil
}

func (c *Client) exists(ctx context.Context, path, id string) (bool, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("id", id).
		Get(path)
	if err != nil {
		return false, fmt.Errorf("core api request: %w", err)
	}

	switch resp.StatusCode() {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("core api %s: unexpected status %d", path, resp.StatusCode())
	}
}

func (c *Client) permissions(ctx context.Context, actorID string) (*permissionsResponse, error) {
	var perms permissionsResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("id", actorID).
		SetResult(&perms).
		Get("/api/users/{id}/permissions")
	if err != nil {
		return nil, fmt.Errorf("core api request: %w", err)
	}

	if resp.StatusCode() == http.StatusNotFound {
		// Неизвестный актор прав не имеет
		return &permissionsResponse{}, nil
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("core api permissions: unexpected status %d", resp.StatusCode())
	}

	return &perms, nil
}
