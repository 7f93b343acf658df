package curriculum_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/p-n-ai/pai-academy/internal/curriculum"
	"github.com/p-n-ai/pai-academy/internal/quiz"
)

func TestLoader_LoadDisciplines(t *testing.T) {
	dir := setupTestCurriculum(t)

	loader, err := curriculum.NewLoader(dir)
	if err != nil {
		t.Fatalf("NewLoader() error = %v", err)
	}

	ds := loader.Disciplines()
	if len(ds) != 2 {
		t.Fatalf("Disciplines() = %d, want 2", len(ds))
	}
	// Files are read alphabetically; order_index decides the sequence.
	if ds[0].ID != "onboarding" || ds[1].ID != "compliance" {
		t.Errorf("Disciplines() order = [%s %s], want [onboarding compliance]", ds[0].ID, ds[1].ID)
	}
}

func TestLoader_LessonsOrdered(t *testing.T) {
	dir := setupTestCurriculum(t)

	loader, err := curriculum.NewLoader(dir)
	if err != nil {
		t.Fatalf("NewLoader() error = %v", err)
	}

	lessons := loader.Lessons("onboarding")
	if len(lessons) != 2 {
		t.Fatalf("Lessons() = %d, want 2", len(lessons))
	}
	if lessons[0].ID != "welcome" || lessons[1].ID != "tools" {
		t.Errorf("Lessons() order = [%s %s], want [welcome tools]", lessons[0].ID, lessons[1].ID)
	}
	if lessons[0].DisciplineID != "onboarding" {
		t.Errorf("DisciplineID = %q, want onboarding", lessons[0].DisciplineID)
	}

	if _, found := loader.Lesson("tools"); !found {
		t.Error("Lesson(tools) not found")
	}
}

func TestLoader_Questions(t *testing.T) {
	dir := setupTestCurriculum(t)

	loader, err := curriculum.NewLoader(dir)
	if err != nil {
		t.Fatalf("NewLoader() error = %v", err)
	}

	lq := loader.LessonQuestions("welcome")
	if len(lq) != 1 {
		t.Fatalf("LessonQuestions(welcome) = %d, want 1", len(lq))
	}
	if lq[0].Kind() != quiz.KindLesson || lq[0].LessonID != "welcome" || lq[0].DisciplineID != "onboarding" {
		t.Errorf("lesson question scoped wrong: %+v", lq[0])
	}

	fq := loader.FinalQuestions("onboarding")
	if len(fq) != 2 {
		t.Fatalf("FinalQuestions(onboarding) = %d, want 2", len(fq))
	}
	if fq[0].ID != "f1" {
		t.Errorf("FinalQuestions()[0] = %s, want f1 (ordered)", fq[0].ID)
	}
	if fq[0].Kind() != quiz.KindFinal {
		t.Error("final question should have no lesson")
	}

	if got := loader.FinalQuestions("compliance"); len(got) != 0 {
		t.Errorf("FinalQuestions(compliance) = %d, want 0", len(got))
	}
}

func TestLoader_Discipline_NotFound(t *testing.T) {
	dir := setupTestCurriculum(t)

	loader, err := curriculum.NewLoader(dir)
	if err != nil {
		t.Fatalf("NewLoader() error = %v", err)
	}

	if _, found := loader.Discipline("NONEXISTENT"); found {
		t.Error("Discipline(NONEXISTENT) should not be found")
	}
}

func TestLoader_SkipsNonDisciplineYAML(t *testing.T) {
	dir := setupTestCurriculum(t)

	os.WriteFile(filepath.Join(dir, "notes.yaml"), []byte(`
title: "editor notes"
`), 0o644)

	loader, err := curriculum.NewLoader(dir)
	if err != nil {
		t.Fatalf("NewLoader() error = %v", err)
	}
	if got := len(loader.Disciplines()); got != 2 {
		t.Errorf("Disciplines() = %d, want 2 (notes YAML should be skipped)", got)
	}
}

func TestLoader_EmptyDir(t *testing.T) {
	loader, err := curriculum.NewLoader(t.TempDir())
	if err != nil {
		t.Fatalf("NewLoader() error = %v", err)
	}
	if got := len(loader.Disciplines()); got != 0 {
		t.Errorf("Disciplines() = %d, want 0 for empty dir", got)
	}
}

func TestLoader_RejectsMalformedContent(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"schema: missing options", `
id: broken
name: Broken
order_index: 0
final_quiz:
  - id: q1
    question: "Sem opções?"
    correct_option: 0
`},
		{"correct option out of range", `
id: broken
name: Broken
order_index: 0
final_quiz:
  - id: q1
    question: "Qual?"
    options: ["A", "B"]
    correct_option: 2
`},
		{"duplicate question ids", `
id: broken
name: Broken
order_index: 0
lessons:
  - id: l1
    title: Aula
    order_index: 0
    quiz:
      - {id: q1, question: "A?", options: ["x", "y"], correct_option: 0}
      - {id: q1, question: "B?", options: ["x", "y"], correct_option: 1}
`},
		{"duplicate lesson order_index", `
id: broken
name: Broken
order_index: 0
lessons:
  - {id: l1, title: Aula 1, order_index: 1}
  - {id: l2, title: Aula 2, order_index: 1}
`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte(tt.body), 0o644)

			_, err := curriculum.NewLoader(dir)
			if err == nil {
				t.Fatal("NewLoader() should reject malformed content")
			}
			if !errors.Is(err, quiz.ErrInvalidContent) {
				t.Errorf("error = %v, want ErrInvalidContent", err)
			}
		})
	}
}

func TestLoader_ReloadKeepsContentOnError(t *testing.T) {
	dir := setupTestCurriculum(t)

	loader, err := curriculum.NewLoader(dir)
	if err != nil {
		t.Fatalf("NewLoader() error = %v", err)
	}

	os.WriteFile(filepath.Join(dir, "zz-dup.yaml"), []byte(`
id: onboarding
name: Duplicate
order_index: 9
`), 0o644)

	if err := loader.Reload(); err == nil {
		t.Fatal("Reload() should reject a duplicate discipline id")
	}
	if got := len(loader.Disciplines()); got != 2 {
		t.Errorf("Disciplines() = %d after failed reload, want 2", got)
	}
}

func TestLoader_RejectsDuplicateDisciplineOrder(t *testing.T) {
	dir := setupTestCurriculum(t)
	os.WriteFile(filepath.Join(dir, "c-security.yaml"), []byte(`
id: security
name: "Segurança"
order_index: 2
`), 0o644)

	_, err := curriculum.NewLoader(dir)
	if !errors.Is(err, quiz.ErrInvalidContent) {
		t.Fatalf("NewLoader() error = %v, want ErrInvalidContent for a shared order_index", err)
	}
}

func TestFromFiles_RejectsDuplicateOrder(t *testing.T) {
	tests := []struct {
		name  string
		files []curriculum.DisciplineFile
	}{
		{"disciplines", []curriculum.DisciplineFile{
			{Discipline: curriculum.Discipline{ID: "d1", OrderIndex: 1}},
			{Discipline: curriculum.Discipline{ID: "d2", OrderIndex: 1}},
		}},
		{"lessons", []curriculum.DisciplineFile{
			{Discipline: curriculum.Discipline{ID: "d1", OrderIndex: 1}, Lessons: []curriculum.LessonFile{
				{Lesson: curriculum.Lesson{ID: "a", OrderIndex: 3}},
				{Lesson: curriculum.Lesson{ID: "b", OrderIndex: 3}},
			}},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := curriculum.FromFiles(tt.files...)
			var cfgErr *quiz.ConfigurationError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("FromFiles() error = %v, want ConfigurationError", err)
			}
		})
	}
}

func TestFromFiles_SameLessonOrderInDifferentDisciplines(t *testing.T) {
	_, err := curriculum.FromFiles(
		curriculum.DisciplineFile{Discipline: curriculum.Discipline{ID: "d1", OrderIndex: 1}, Lessons: []curriculum.LessonFile{
			{Lesson: curriculum.Lesson{ID: "a", OrderIndex: 1}},
		}},
		curriculum.DisciplineFile{Discipline: curriculum.Discipline{ID: "d2", OrderIndex: 2}, Lessons: []curriculum.LessonFile{
			{Lesson: curriculum.Lesson{ID: "b", OrderIndex: 1}},
		}},
	)
	if err != nil {
		t.Errorf("FromFiles() error = %v, lesson order is scoped to its discipline", err)
	}
}

func TestFromFiles(t *testing.T) {
	loader, err := curriculum.FromFiles(curriculum.DisciplineFile{
		Discipline: curriculum.Discipline{ID: "d1", Name: "D1"},
		Lessons: []curriculum.LessonFile{
			{Lesson: curriculum.Lesson{ID: "b", OrderIndex: 2}},
			{Lesson: curriculum.Lesson{ID: "a", OrderIndex: 1}},
		},
	})
	if err != nil {
		t.Fatalf("FromFiles() error = %v", err)
	}
	ls := loader.Lessons("d1")
	if len(ls) != 2 || ls[0].ID != "a" {
		t.Errorf("Lessons(d1) = %+v, want a before b", ls)
	}
}

func setupTestCurriculum(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	os.WriteFile(filepath.Join(dir, "a-compliance.yaml"), []byte(`
id: compliance
name: "Compliance"
description: "Políticas internas"
order_index: 2
icon: "📜"
lessons:
  - id: code-of-conduct
    title: "Código de conduta"
    order_index: 0
`), 0o644)

	os.WriteFile(filepath.Join(dir, "b-onboarding.yaml"), []byte(`
id: onboarding
name: "Onboarding"
order_index: 1
lessons:
  - id: tools
    title: "Ferramentas"
    order_index: 2
  - id: welcome
    title: "Boas-vindas"
    order_index: 1
    video_url: "https://videos.example.com/welcome.mp4"
    quiz:
      - id: w1
        question: "Qual é a missão da empresa?"
        options: ["Lucro", "Servir clientes", "Nenhuma"]
        correct_option: 1
        comment: "Veja o vídeo de boas-vindas."
final_quiz:
  - id: f2
    question: "Quem aprova férias?"
    options: ["Gestor", "RH"]
    correct_option: 0
    order_index: 2
  - id: f1
    question: "Onde ficam os manuais?"
    options: ["Wiki", "E-mail"]
    correct_option: 0
    order_index: 1
`), 0o644)

	return dir
}
