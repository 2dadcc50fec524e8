package expr

// Context is the read-only record the expression language evaluates
// against: {user, id, page.url, geo, request.headers}.
type Context struct {
	ID      string
	User    any
	Page    PageContext
	Geo     any
	Request RequestContext
}

// PageContext carries the current page URL, which may be absent.
type PageContext struct {
	URL *string
}

// RequestContext carries the transport-augmented request headers.
type RequestContext struct {
	Headers map[string]string
}

func (c Context) resolveRoot(name string) (any, bool) {
	switch name {
	case "id":
		return c.ID, true
	case "user":
		return c.User, true
	case "page":
		return c.pageAsMap(), true
	case "geo":
		return c.Geo, true
	case "request":
		return c.requestAsMap(), true
	default:
		return nil, false
	}
}

func (c Context) pageAsMap() map[string]any {
	m := map[string]any{}
	if c.Page.URL != nil {
		m["url"] = *c.Page.URL
	} else {
		m["url"] = nil
	}
	return m
}

func (c Context) requestAsMap() map[string]any {
	headers := map[string]any{}
	for k, v := range c.Request.Headers {
		headers[k] = v
	}
	return map[string]any{"headers": headers}
}
