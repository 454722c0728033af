package mem

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrBadPath is returned for a path that cannot be parsed or that
// navigates into a non-container element.
var ErrBadPath = errors.New("bad element path")

// Path retrieves a descendant element by symbolic path, for example
// ".memory[2].rxfreq" or "settings.vox".
func (s *Struct) Path(path string) (Element, error) {
	return walkPath(s, path)
}

// Path retrieves a descendant element by symbolic path, for example
// "[3].name".
func (a *Array) Path(path string) (Element, error) {
	return walkPath(a, path)
}

func walkPath(el Element, path string) (Element, error) {
	rest := path
	for rest != "" {
		switch {
		case rest[0] == '.':
			rest = rest[1:]

		case rest[0] == '[':
			end := strings.IndexByte(rest, ']')
			if end < 0 {
				return nil, fmt.Errorf("%w: unterminated index in %q", ErrBadPath, path)
			}
			index, err := strconv.Atoi(rest[1:end])
			if err != nil {
				return nil, fmt.Errorf("%w: index %q in %q", ErrBadPath, rest[1:end], path)
			}
			arr, ok := el.(*Array)
			if !ok {
				return nil, fmt.Errorf("%w: cannot index %T in %q", ErrBadPath, el, path)
			}
			el, err = arr.At(index)
			if err != nil {
				return nil, err
			}
			rest = rest[end+1:]

		default:
			stop := strings.IndexAny(rest, ".[")
			if stop < 0 {
				stop = len(rest)
			}
			st, ok := el.(*Struct)
			if !ok {
				return nil, fmt.Errorf("%w: cannot select %q from %T in %q", ErrBadPath, rest[:stop], el, path)
			}
			child, err := st.Field(rest[:stop])
			if err != nil {
				return nil, err
			}
			el = child
			rest = rest[stop:]
		}
	}
	return el, nil
}
