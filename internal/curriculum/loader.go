package curriculum

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	"github.com/p-n-ai/pai-academy/internal/quiz"
)

//go:embed schema/discipline.schema.json
var disciplineSchema string

// Loader loads and serves curriculum content from the filesystem.
type Loader struct {
	rootDir string
	schema  *gojsonschema.Schema
	content *content
	mu      sync.RWMutex
}

// content is an immutable, indexed view of the curriculum.
type content struct {
	disciplines     []Discipline
	byID            map[string]Discipline
	lessons         map[string][]Lesson // discipline id -> ordered lessons
	lessonByID      map[string]Lesson
	lessonQuestions map[string][]quiz.Question // lesson id -> questions
	finalQuestions  map[string][]quiz.Question // discipline id -> questions
}

// NewLoader creates a loader and loads every discipline file under rootDir.
func NewLoader(rootDir string) (*Loader, error) {
	schema, err := compileSchema()
	if err != nil {
		return nil, err
	}

	l := &Loader{rootDir: rootDir, schema: schema}
	if err := l.Reload(); err != nil {
		return nil, err
	}
	return l, nil
}

// FromFiles builds a loader from in-memory discipline files. Content rules
// are the same as for files on disk; schema validation is skipped.
func FromFiles(files ...DisciplineFile) (*Loader, error) {
	c, err := build(files)
	if err != nil {
		return nil, err
	}
	return &Loader{content: c}, nil
}

// Reload re-reads the curriculum directory. On error the previous content
// stays in place.
func (l *Loader) Reload() error {
	if l.rootDir == "" {
		return fmt.Errorf("loader has no curriculum directory")
	}

	files, err := l.readAll()
	if err != nil {
		return fmt.Errorf("loading curriculum: %w", err)
	}
	c, err := build(files)
	if err != nil {
		return fmt.Errorf("loading curriculum: %w", err)
	}

	l.mu.Lock()
	l.content = c
	l.mu.Unlock()

	slog.Info("curriculum loaded",
		"disciplines", len(c.disciplines),
		"lessons", len(c.lessonByID),
	)
	return nil
}

// Disciplines returns every discipline in curriculum order.
func (l *Loader) Disciplines() []Discipline {
	c := l.current()
	return append([]Discipline{}, c.disciplines...)
}

// Discipline returns a discipline by ID.
func (l *Loader) Discipline(id string) (Discipline, bool) {
	d, ok := l.current().byID[id]
	return d, ok
}

// Lessons returns the lessons of a discipline in order.
func (l *Loader) Lessons(disciplineID string) []Lesson {
	return append([]Lesson{}, l.current().lessons[disciplineID]...)
}

// Lesson returns a lesson by ID.
func (l *Loader) Lesson(id string) (Lesson, bool) {
	ls, ok := l.current().lessonByID[id]
	return ls, ok
}

// LessonQuestions returns the quiz of a lesson in order.
func (l *Loader) LessonQuestions(lessonID string) []quiz.Question {
	return append([]quiz.Question{}, l.current().lessonQuestions[lessonID]...)
}

// FinalQuestions returns the final quiz of a discipline in order.
func (l *Loader) FinalQuestions(disciplineID string) []quiz.Question {
	return append([]quiz.Question{}, l.current().finalQuestions[disciplineID]...)
}

func (l *Loader) current() *content {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.content == nil {
		return &content{}
	}
	return l.content
}

func (l *Loader) readAll() ([]DisciplineFile, error) {
	var files []DisciplineFile
	err := filepath.WalkDir(l.rootDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !strings.HasSuffix(path, ".yaml") && !strings.HasSuffix(path, ".yml") {
			return nil
		}

		f, ok, err := l.readFile(path)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if ok {
			files = append(files, f)
		}
		return nil
	})
	return files, err
}

func (l *Loader) readFile(path string) (DisciplineFile, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return DisciplineFile{}, false, err
	}

	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return DisciplineFile{}, false, &quiz.ConfigurationError{Reason: fmt.Sprintf("invalid YAML: %v", err)}
	}
	if _, ok := doc["id"]; !ok {
		slog.Debug("skipping non-discipline YAML", "path", path)
		return DisciplineFile{}, false, nil
	}

	res, err := l.schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return DisciplineFile{}, false, fmt.Errorf("validate schema: %w", err)
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		return DisciplineFile{}, false, &quiz.ConfigurationError{Reason: strings.Join(msgs, "; ")}
	}

	var f DisciplineFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return DisciplineFile{}, false, &quiz.ConfigurationError{Reason: fmt.Sprintf("invalid YAML: %v", err)}
	}
	return f, true, nil
}

func compileSchema() (*gojsonschema.Schema, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(disciplineSchema))
	if err != nil {
		return nil, fmt.Errorf("compile discipline schema: %w", err)
	}
	return schema, nil
}

// build indexes discipline files and enforces the content rules: unique ids,
// unique order indexes and well-formed questions.
func build(files []DisciplineFile) (*content, error) {
	c := &content{
		byID:            make(map[string]Discipline),
		lessons:         make(map[string][]Lesson),
		lessonByID:      make(map[string]Lesson),
		lessonQuestions: make(map[string][]quiz.Question),
		finalQuestions:  make(map[string][]quiz.Question),
	}
	disciplineAt := make(map[int]string)

	for _, f := range files {
		d := f.Discipline
		if d.ID == "" {
			return nil, &quiz.ConfigurationError{Reason: "discipline without id"}
		}
		if _, dup := c.byID[d.ID]; dup {
			return nil, &quiz.ConfigurationError{Reason: fmt.Sprintf("duplicate discipline id %q", d.ID)}
		}
		if other, dup := disciplineAt[d.OrderIndex]; dup {
			return nil, &quiz.ConfigurationError{
				Reason: fmt.Sprintf("disciplines %q and %q share order_index %d", other, d.ID, d.OrderIndex),
			}
		}
		disciplineAt[d.OrderIndex] = d.ID
		c.byID[d.ID] = d
		c.disciplines = append(c.disciplines, d)

		lessonAt := make(map[int]string)
		lessons := make([]Lesson, 0, len(f.Lessons))
		for _, lf := range f.Lessons {
			ls := lf.Lesson
			ls.DisciplineID = d.ID
			if ls.ID == "" {
				return nil, &quiz.ConfigurationError{Reason: fmt.Sprintf("lesson without id in discipline %q", d.ID)}
			}
			if _, dup := c.lessonByID[ls.ID]; dup {
				return nil, &quiz.ConfigurationError{Reason: fmt.Sprintf("duplicate lesson id %q", ls.ID)}
			}
			if other, dup := lessonAt[ls.OrderIndex]; dup {
				return nil, &quiz.ConfigurationError{
					Reason: fmt.Sprintf("lessons %q and %q of discipline %q share order_index %d", other, ls.ID, d.ID, ls.OrderIndex),
				}
			}
			lessonAt[ls.OrderIndex] = ls.ID
			c.lessonByID[ls.ID] = ls
			lessons = append(lessons, ls)

			qs, err := scopeQuestions(lf.Quiz, d.ID, ls.ID)
			if err != nil {
				return nil, err
			}
			c.lessonQuestions[ls.ID] = qs
		}
		SortLessons(lessons)
		c.lessons[d.ID] = lessons

		qs, err := scopeQuestions(f.FinalQuiz, d.ID, "")
		if err != nil {
			return nil, err
		}
		c.finalQuestions[d.ID] = qs
	}

	SortDisciplines(c.disciplines)
	return c, nil
}

func scopeQuestions(in []quiz.Question, disciplineID, lessonID string) ([]quiz.Question, error) {
	qs := make([]quiz.Question, len(in))
	for i, q := range in {
		q.DisciplineID = disciplineID
		q.LessonID = lessonID
		qs[i] = q
	}
	if err := quiz.ValidateQuestions(qs); err != nil {
		return nil, err
	}
	SortQuestions(qs)
	return qs, nil
}
