package service

import (
	"context"
	"testing"

	"github.com/spec-kit/community-tickets/internal/domain"
	apperrors "github.com/spec-kit/community-tickets/pkg/util"
)

func newCategoryService() (*CategoryService, *fakeCategoryRepo, *fakeSettingsRepo) {
	categories := newFakeCategoryRepo()
	settings := newFakeSettingsRepo()
	communitySettings := domain.DefaultSettings(testCommunity)
	communitySettings.AdminRoles = []string{"admin-role"}
	settings.put(communitySettings)
	return NewCategoryService(categories, settings), categories, settings
}

func TestCategoryCreateRequiresAdmin(t *testing.T) {
	svc, _, _ := newCategoryService()

	_, err := svc.Create(context.Background(), testCommunity, supporter, CategoryInput{Name: "General"})
	if !apperrors.HasCode(err, apperrors.CodeForbidden) {
		t.Fatalf("create error = %v, want FORBIDDEN", err)
	}

	if _, err := svc.Create(context.Background(), testCommunity, adminUser, CategoryInput{Name: "General"}); err != nil {
		t.Fatalf("create as admin: %v", err)
	}
	communityAdmin := domain.Actor{ID: "mod-1", Roles: []string{"admin-role"}}
	if _, err := svc.Create(context.Background(), testCommunity, communityAdmin, CategoryInput{Name: "Billing"}); err != nil {
		t.Fatalf("create as community admin: %v", err)
	}
}

func TestCategoryValidation(t *testing.T) {
	svc, _, _ := newCategoryService()

	tests := []struct {
		name  string
		input CategoryInput
	}{
		{
			name:  "empty name",
			input: CategoryInput{Name: "   "},
		},
		{
			name: "too many form fields",
			input: CategoryInput{Name: "General", FormFields: []domain.FormField{
				{Label: "a"}, {Label: "b"}, {Label: "c"}, {Label: "d"}, {Label: "e"}, {Label: "f"},
			}},
		},
		{
			name: "unlabeled field",
			input: CategoryInput{Name: "General", FormFields: []domain.FormField{
				{Label: " "},
			}},
		},
		{
			name: "bad style",
			input: CategoryInput{Name: "General", FormFields: []domain.FormField{
				{Label: "Question", Style: "dropdown"},
			}},
		},
		{
			name: "inverted length bounds",
			input: CategoryInput{Name: "General", FormFields: []domain.FormField{
				{Label: "Question", MinLength: 50, MaxLength: 10},
			}},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), testCommunity, adminUser, tc.input)
			if !apperrors.HasCode(err, apperrors.CodeValidation) {
				t.Fatalf("create error = %v, want VALIDATION_FAILED", err)
			}
		})
	}
}

func TestCategoryFormFieldDefaults(t *testing.T) {
	svc, _, _ := newCategoryService()

	category, err := svc.Create(context.Background(), testCommunity, adminUser, CategoryInput{
		Name:       "Bug Reports",
		FormFields: []domain.FormField{{Label: "What happened?"}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	field := category.FormFields[0]
	if field.Style != domain.FieldStyleShort || field.MinLength != 1 || field.MaxLength != 1000 {
		t.Fatalf("normalized field = %+v", field)
	}
}

func TestCategoryUpdateAndDelete(t *testing.T) {
	svc, _, _ := newCategoryService()

	category, err := svc.Create(context.Background(), testCommunity, adminUser, CategoryInput{Name: "General", Enabled: true})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := svc.Update(context.Background(), testCommunity, category.ID, adminUser, CategoryInput{Name: "Renamed", Enabled: false})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "Renamed" || updated.Enabled {
		t.Fatalf("updated = %+v", updated)
	}

	if _, err := svc.Update(context.Background(), testCommunity, "missing", adminUser, CategoryInput{Name: "x"}); !apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Fatalf("update missing = %v, want NOT_FOUND", err)
	}

	if err := svc.Delete(context.Background(), testCommunity, category.ID, adminUser); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := svc.Delete(context.Background(), testCommunity, category.ID, adminUser); !apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Fatalf("second delete = %v, want NOT_FOUND", err)
	}
}

func TestCategoryListFiltersDisabled(t *testing.T) {
	svc, _, _ := newCategoryService()

	if _, err := svc.Create(context.Background(), testCommunity, adminUser, CategoryInput{Name: "Visible", Enabled: true}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Create(context.Background(), testCommunity, adminUser, CategoryInput{Name: "Hidden", Enabled: false}); err != nil {
		t.Fatalf("create: %v", err)
	}

	enabled, err := svc.List(context.Background(), testCommunity, true)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(enabled) != 1 || enabled[0].Name != "Visible" {
		t.Fatalf("enabled list = %+v", enabled)
	}

	all, err := svc.List(context.Background(), testCommunity, false)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("full list = %+v", all)
	}
}
