package email

// bodyPass selects the leaves a search pass accepts.
type bodyPass struct {
	html   bool
	accept func(*Leaf) bool
}

var bodyPasses = []bodyPass{
	{accept: func(l *Leaf) bool { return l.MediaType == "text/plain" && !l.IsAttachment() }},
	{html: true, accept: func(l *Leaf) bool { return l.MediaType == "text/html" && !l.IsAttachment() }},
	{accept: func(l *Leaf) bool { return !l.IsAttachment() }},
}

// findBody picks the message body: a direct top-level text/plain part, then a direct
// top-level text/html part, then a recursive search for plain, html and finally any
// non-attachment leaf.
func findBody(root Node) string {
	direct := directLeaves(root)
	for _, pass := range bodyPasses[:2] {
		for _, l := range direct {
			if pass.accept(l) {
				if text := leafText(l, pass.html); text != "" {
					return text
				}
			}
		}
	}

	for _, pass := range bodyPasses {
		var found string
		Walk(root, func(l *Leaf) bool {
			if !pass.accept(l) {
				return true
			}
			html := pass.html || l.MediaType == "text/html"
			if text := leafText(l, html); text != "" {
				found = text
				return false
			}
			return true
		})
		if found != "" {
			return found
		}
	}
	return ""
}

func directLeaves(root Node) []*Leaf {
	switch v := root.(type) {
	case *Leaf:
		return []*Leaf{v}
	case *Composite:
		var out []*Leaf
		for _, c := range v.Children {
			if l, ok := c.(*Leaf); ok {
				out = append(out, l)
			}
		}
		return out
	}
	return nil
}

func leafText(l *Leaf, html bool) string {
	text, err := l.Text()
	if err != nil {
		return ""
	}
	if html {
		return StripHTML(text)
	}
	return CollapseWhitespace(text)
}
