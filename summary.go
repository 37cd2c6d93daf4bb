package vofile

import (
	"encoding/hex"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/scigolib/vofile/internal/core"
)

// DirPath is an ordered sequence of module path segments. On disk it is a
// right-recursive nullable list with the head stored first; decoding
// appends each head at the tail-most position so Segments ends up in
// source order.
type DirPath struct {
	Segments []string
}

// String joins the segments with dots.
func (p *DirPath) String() string {
	return strings.Join(p.Segments, ".")
}

// DigestBytes is a 16-byte opaque identifier used to version a
// dependency, typically MD5-shaped.
type DigestBytes [16]byte

// String renders the digest as lowercase hex.
func (d DigestBytes) String() string {
	return hex.EncodeToString(d[:])
}

// Dep names a library together with the digest it was compiled against.
type Dep struct {
	Path   *DirPath
	Digest DigestBytes
}

// Summary is the first segment of a compiled library: the module name,
// its imports and its digested dependencies.
type Summary struct {
	Name    *DirPath
	Imports []*DirPath
	Deps    []Dep
}

func utf8String() Schema[string] {
	return StringOf(func(b []byte) (string, error) {
		if !utf8.Valid(b) {
			return "", fmt.Errorf("string: invalid UTF-8: %q", b)
		}
		return string(b), nil
	})
}

func digest() Schema[DigestBytes] {
	return Wrapped(StringOf(func(b []byte) (DigestBytes, error) {
		if len(b) != 16 {
			return DigestBytes{}, fmt.Errorf("digest: expected string of length 16, got length %d", len(b))
		}
		return DigestBytes(b), nil
	}))
}

// dirPath decodes the nullable cons-list shape. Shared tails project to
// the same *DirPath.
func dirPath() Schema[*DirPath] {
	return projectDirPath
}

func projectDirPath(b *Binder, d core.Data) (*DirPath, error) {
	if d.Kind == core.DataInt {
		if d.N != 0 {
			return nil, fmt.Errorf("dir_path: expected pointer or int 0, got %s", d)
		}
		return &DirPath{}, nil
	}
	return resolve(b, d, "dir_path", func(b *Binder, c core.Cell) (*DirPath, error) {
		sc, ok := c.(core.StructCell)
		if !ok {
			return nil, fmt.Errorf("dir_path: expected block, cell holds %T", c)
		}
		if sc.Tag != 0 || len(sc.Fields) != 2 {
			return nil, fmt.Errorf("dir_path: expected tag 0 with 2 fields, got tag %d with %d fields", sc.Tag, len(sc.Fields))
		}
		head, err := utf8String()(b, sc.Fields[0])
		if err != nil {
			return nil, err
		}
		tail, err := projectDirPath(b, sc.Fields[1])
		if err != nil {
			return nil, err
		}
		segs := make([]string, 0, len(tail.Segments)+1)
		segs = append(segs, tail.Segments...)
		segs = append(segs, head)
		return &DirPath{Segments: segs}, nil
	})
}

func dep() Schema[Dep] {
	p := PairOf(dirPath(), digest())
	return func(b *Binder, d core.Data) (Dep, error) {
		pr, err := p(b, d)
		if err != nil {
			return Dep{}, err
		}
		return Dep{Path: pr.Fst, Digest: pr.Snd}, nil
	}
}

// summarySchema is the projection for the summary segment root.
var summarySchema = Ref(Record[Summary]("summary_disk",
	BindField(func(s *Summary, v *DirPath) { s.Name = v }, dirPath()),
	BindField(func(s *Summary, v []*DirPath) { s.Imports = v }, Vec(dirPath())),
	BindField(func(s *Summary, v []Dep) { s.Deps = v }, Vec(dep())),
))
