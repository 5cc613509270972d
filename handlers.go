package textbulker

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/textbulker/textbulker/auth"
	"github.com/textbulker/textbulker/meta"
	"github.com/textbulker/textbulker/plugin"
	"github.com/textbulker/textbulker/views"
)

const postsRoute = "/wp/v2/posts"

// metaRegistry builds the meta registry for the current request. Exposure
// follows the settings as they are stored at request time.
func (a *App) metaRegistry(ctx context.Context) (*meta.Registry, error) {
	reg := meta.NewRegistry()
	if _, err := a.Manager.MaybeRegisterMetaFields(ctx, reg); err != nil {
		return nil, err
	}
	return reg, nil
}

func (a *App) handleListPosts(c echo.Context) error {
	ctx := c.Request().Context()
	caller := auth.FromContext(c)
	includeDrafts := false
	if status := c.QueryParam("status"); status == "any" || status == statusDraft {
		if !caller.Can(auth.EditPosts) {
			return plugin.NewRESTError(statusFor(caller), "rest_invalid_param", "Status is forbidden.")
		}
		includeDrafts = true
	}
	posts, err := a.Store.ListPosts(ctx, includeDrafts)
	if err != nil {
		return err
	}
	reg, err := a.metaRegistry(ctx)
	if err != nil {
		return err
	}
	out := make([]postResponse, 0, len(posts))
	for _, p := range posts {
		if c.QueryParam("status") == statusDraft && p.Published {
			continue
		}
		if p.Meta, err = a.Store.PostMeta(ctx, p.Slug); err != nil {
			return err
		}
		resp, err := a.postToResponse(p, reg, caller)
		if err != nil {
			return err
		}
		out = append(out, resp)
	}
	return c.JSON(http.StatusOK, out)
}

func (a *App) handleGetPost(c echo.Context) error {
	ctx := c.Request().Context()
	caller := auth.FromContext(c)
	post, err := a.Store.GetPost(ctx, c.Param("slug"))
	if errors.Is(err, ErrNotFound) {
		return plugin.NewRESTError(http.StatusNotFound, "rest_post_invalid_id", "Invalid post ID.")
	}
	if err != nil {
		return err
	}
	if !post.Published && !caller.Can(auth.EditPosts) {
		return plugin.ForbiddenError(caller)
	}
	reg, err := a.metaRegistry(ctx)
	if err != nil {
		return err
	}
	resp, err := a.postToResponse(post, reg, caller)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}

// handleSavePost creates a post (POST /posts) or updates one
// (POST /posts/:slug).
func (a *App) handleSavePost(c echo.Context) error {
	ctx := c.Request().Context()
	caller := auth.FromContext(c)
	slug := c.Param("slug")
	if !caller.Can(auth.EditPosts) {
		code := "rest_cannot_create"
		if slug != "" {
			code = "rest_cannot_edit"
		}
		return plugin.NewRESTError(statusFor(caller), code, "Sorry, you are not allowed to do that.")
	}

	var req postRequest
	if err := c.Bind(&req); err != nil {
		return plugin.NewRESTError(http.StatusBadRequest, "rest_invalid_json", "Invalid JSON body passed.")
	}

	var post Post
	created := slug == ""
	if created {
		post = Post{Published: true, Date: time.Now().Format("2006-01-02")}
		if req.Slug != nil {
			slug = Slugify(*req.Slug)
		}
		if slug == "" && req.Title != nil {
			slug = Slugify(*req.Title)
		}
		if slug == "" {
			return plugin.NewRESTError(http.StatusBadRequest, "rest_missing_callback_param", "Missing parameter(s): slug or title.")
		}
		if _, err := a.Store.GetPost(ctx, slug); err == nil {
			return plugin.NewRESTError(http.StatusBadRequest, "rest_post_exists", "A post with this slug already exists.")
		} else if !errors.Is(err, ErrNotFound) {
			return err
		}
		post.Slug = slug
	} else {
		existing, err := a.Store.GetPost(ctx, slug)
		if errors.Is(err, ErrNotFound) {
			return plugin.NewRESTError(http.StatusNotFound, "rest_post_invalid_id", "Invalid post ID.")
		}
		if err != nil {
			return err
		}
		post = existing
	}

	if err := applyPostRequest(&post, req); err != nil {
		return plugin.NewRESTError(http.StatusBadRequest, "rest_invalid_param", err.Error())
	}

	reg, err := a.metaRegistry(ctx)
	if err != nil {
		return err
	}
	updates, err := metaUpdates(reg, caller, req.Meta)
	if err != nil {
		return err
	}
	post.Meta = updates
	if err := a.Store.SavePost(ctx, post); err != nil {
		return err
	}
	a.Logger.Info("post saved", zap.String("slug", post.Slug), zap.Bool("created", created), zap.Int("meta", len(updates)))

	saved, err := a.Store.GetPost(ctx, post.Slug)
	if err != nil {
		return err
	}
	resp, err := a.postToResponse(saved, reg, caller)
	if err != nil {
		return err
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	return c.JSON(status, resp)
}

// handleDeletePost removes a post and its meta, answering with the post as
// it was before deletion.
func (a *App) handleDeletePost(c echo.Context) error {
	ctx := c.Request().Context()
	caller := auth.FromContext(c)
	if !caller.Can(auth.EditPosts) {
		return plugin.NewRESTError(statusFor(caller), "rest_cannot_delete", "Sorry, you are not allowed to delete this post.")
	}
	slug := c.Param("slug")
	post, err := a.Store.GetPost(ctx, slug)
	if errors.Is(err, ErrNotFound) {
		return plugin.NewRESTError(http.StatusNotFound, "rest_post_invalid_id", "Invalid post ID.")
	}
	if err != nil {
		return err
	}
	reg, err := a.metaRegistry(ctx)
	if err != nil {
		return err
	}
	prev, err := a.postToResponse(post, reg, caller)
	if err != nil {
		return err
	}
	if err := a.Store.DeletePost(ctx, slug); err != nil {
		return err
	}
	a.Logger.Info("post deleted", zap.String("slug", slug), zap.String("by", caller.Name()))
	return c.JSON(http.StatusOK, deleteResponse{Deleted: true, Previous: prev})
}

func applyPostRequest(p *Post, req postRequest) error {
	if req.Title != nil {
		p.Title = strings.TrimSpace(*req.Title)
	}
	if req.Content != nil {
		p.Content = *req.Content
	}
	if req.Date != nil {
		date := strings.TrimSpace(*req.Date)
		if _, err := time.Parse("2006-01-02", date); err != nil {
			return errors.New("invalid date format, use YYYY-MM-DD")
		}
		p.Date = date
	}
	if req.Status != nil {
		switch *req.Status {
		case statusPublish:
			p.Published = true
		case statusDraft:
			p.Published = false
		default:
			return errors.New("status is not one of publish, draft")
		}
	}
	return nil
}

// metaUpdates filters the submitted meta down to registered keys. Keys that
// are not exposed are ignored; exposed keys the caller may not edit reject
// the whole request.
func metaUpdates(reg *meta.Registry, caller auth.Caller, in map[string]string) (map[string]string, error) {
	out := make(map[string]string, len(in))
	for k, v := range in {
		f, ok := reg.Lookup(meta.ObjectPost, k)
		if !ok || !f.ShowInREST {
			continue
		}
		if !f.Allowed(caller) {
			return nil, plugin.NewRESTError(statusFor(caller), "rest_cannot_update",
				fmt.Sprintf("Sorry, you are not allowed to edit the %s custom field.", k))
		}
		out[k] = meta.SanitizeString(v)
	}
	return out, nil
}

func (a *App) postToResponse(p Post, reg *meta.Registry, caller auth.Caller) (postResponse, error) {
	body, err := RenderMarkdown(p.Content)
	if err != nil {
		return postResponse{}, err
	}
	resp := postResponse{
		Slug:    p.Slug,
		Date:    p.Date,
		Status:  p.Status(),
		Link:    a.Config.RESTPrefix + postsRoute + "/" + p.Slug,
		Title:   rendered{Rendered: html.EscapeString(p.Title)},
		Content: rendered{Rendered: body},
		Meta:    map[string]string{},
	}
	if caller.Can(auth.EditPosts) {
		resp.Title.Raw = p.Title
		resp.Content.Raw = p.Content
	}
	for _, k := range reg.Readable(meta.ObjectPost, caller) {
		resp.Meta[k] = p.Meta[k]
	}
	return resp, nil
}

func statusFor(caller auth.Caller) int {
	if caller.Authenticated() {
		return http.StatusForbidden
	}
	return http.StatusUnauthorized
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	he, ok := err.(*echo.HTTPError)
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		a.Logger.Error("server error", zap.Error(err), zap.String("uri", c.Request().RequestURI))
	}
	if a.isREST(c) {
		if _, isREST := restMessage(he); !isREST {
			switch {
			case code == http.StatusNotFound:
				err = plugin.NewRESTError(code, "rest_no_route", "No route was found matching the URL and request method.")
			case code >= 500:
				err = plugin.NewRESTError(code, "internal_server_error", "There has been a critical error on this website.")
			}
		}
		a.Echo.DefaultHTTPErrorHandler(err, c)
		return
	}
	switch {
	case code == http.StatusNotFound:
		_ = views.Render(c, code, views.NotFound())
	case code >= 500:
		_ = views.Render(c, code, views.ServerError())
	default:
		a.Echo.DefaultHTTPErrorHandler(err, c)
	}
}

func restMessage(he *echo.HTTPError) (plugin.RESTError, bool) {
	if he == nil {
		return plugin.RESTError{}, false
	}
	re, ok := he.Message.(plugin.RESTError)
	return re, ok
}
