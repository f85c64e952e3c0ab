// Package memdb is an in-process implementation of the user, category and
// recipe repositories. It backs tests and local runs without PostgreSQL.
package memdb

import (
	"context"
	"fmt"
	"math/rand/v2"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/recipebox/backend/internal/db"
	"github.com/recipebox/backend/internal/model"
)

type Store struct {
	mu         sync.RWMutex
	seq        int64
	users      map[string]*userRow
	categories map[string]*categoryRow
	recipes    map[string]*recipeRow
	now        func() time.Time
}

type userRow struct {
	seq  int64
	user model.User
}

type categoryRow struct {
	seq      int64
	category model.Category
}

type recipeRow struct {
	seq    int64
	recipe model.Recipe
}

func New() *Store {
	return &Store{
		users:      map[string]*userRow{},
		categories: map[string]*categoryRow{},
		recipes:    map[string]*recipeRow{},
		now:        time.Now,
	}
}

func (s *Store) next() int64 {
	s.seq++
	return s.seq
}

func duplicate(index string) error {
	return fmt.Errorf("%w: %s", db.ErrDuplicate, index)
}

// Users

func (s *Store) CreateUser(_ context.Context, u *model.User) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, row := range s.users {
		if row.user.Email == u.Email {
			return nil, duplicate("users_email_key")
		}
	}
	user := *u
	user.Avatar = cloneSlot(u.Avatar)
	user.RefreshTokenHash = ""
	user.CreatedAt = s.now()
	user.UpdatedAt = user.CreatedAt
	s.users[user.ID] = &userRow{seq: s.next(), user: user}
	return &user, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, row := range s.users {
		if row.user.Email == email {
			u := copyUser(row.user)
			return &u, nil
		}
	}
	return nil, db.ErrNotFound
}

func (s *Store) GetUserByID(_ context.Context, id string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.users[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	u := copyUser(row.user)
	return &u, nil
}

func (s *Store) GetUsersByIDs(_ context.Context, ids []string) ([]model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.User
	for _, id := range ids {
		if row, ok := s.users[id]; ok {
			out = append(out, copyUser(row.user))
		}
	}
	return out, nil
}

func (s *Store) SetRefreshTokenHash(_ context.Context, userID, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.users[userID]
	if !ok {
		return db.ErrNotFound
	}
	row.user.RefreshTokenHash = hash
	row.user.UpdatedAt = s.now()
	return nil
}

// Categories

func (s *Store) ListCategories(_ context.Context) ([]model.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := make([]*categoryRow, 0, len(s.categories))
	for _, row := range s.categories {
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq > rows[j].seq })

	out := make([]model.Category, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.category)
	}
	return out, nil
}

func (s *Store) GetCategoryByID(_ context.Context, id string) (*model.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.categories[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	c := row.category
	return &c, nil
}

func (s *Store) GetCategoryByName(_ context.Context, name string) (*model.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, row := range s.categories {
		if row.category.Name == name {
			c := row.category
			return &c, nil
		}
	}
	return nil, db.ErrNotFound
}

func (s *Store) GetCategoriesByIDs(_ context.Context, ids []string) ([]model.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []model.Category{}
	for _, id := range ids {
		if row, ok := s.categories[id]; ok {
			out = append(out, row.category)
		}
	}
	return out, nil
}

func (s *Store) CreateCategory(_ context.Context, c *model.Category) (*model.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range s.categories {
		if row.category.Name == c.Name {
			return nil, duplicate("categories_name_key")
		}
	}
	category := *c
	category.CreatedAt = s.now()
	category.UpdatedAt = category.CreatedAt
	s.categories[category.ID] = &categoryRow{seq: s.next(), category: category}
	return &category, nil
}

func (s *Store) UpdateCategory(_ context.Context, id string, upd model.CategoryUpdate) (*model.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.categories[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	if upd.Name != nil {
		for otherID, other := range s.categories {
			if otherID != id && other.category.Name == *upd.Name {
				return nil, duplicate("categories_name_key")
			}
		}
	}

	c := row.category
	if upd.Name != nil {
		c.Name = *upd.Name
	}
	if upd.Description != nil {
		c.Description = *upd.Description
	}
	if upd.Image != nil {
		c.Image = *upd.Image
	}
	c.UpdatedAt = s.now()
	row.category = c
	return &c, nil
}

// DeleteCategoryCascade removes the category together with its recipes and
// its secondary references under one lock.
func (s *Store) DeleteCategoryCascade(_ context.Context, id string) (int64, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[id]; !ok {
		return 0, 0, db.ErrNotFound
	}

	var deleted, pulled int64
	for recipeID, row := range s.recipes {
		if row.recipe.MainCategoryID == id {
			delete(s.recipes, recipeID)
			deleted++
			continue
		}
		before := len(row.recipe.SecondaryCategoryIDs)
		row.recipe.SecondaryCategoryIDs = slices.DeleteFunc(row.recipe.SecondaryCategoryIDs, func(c string) bool {
			return c == id
		})
		if len(row.recipe.SecondaryCategoryIDs) != before {
			row.recipe.UpdatedAt = s.now()
			pulled++
		}
	}
	delete(s.categories, id)
	return deleted, pulled, nil
}

// Recipes

func (s *Store) sortedRecipes(keep func(*model.Recipe) bool) []model.Recipe {
	rows := make([]*recipeRow, 0, len(s.recipes))
	for _, row := range s.recipes {
		if keep(&row.recipe) {
			rows = append(rows, row)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq > rows[j].seq })

	out := make([]model.Recipe, 0, len(rows))
	for _, row := range rows {
		out = append(out, copyRecipe(row.recipe))
	}
	return out
}

func (s *Store) ListRecipes(_ context.Context, filters model.RecipeFilters) ([]model.Recipe, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	search := strings.ToLower(strings.TrimSpace(filters.Search))
	return s.sortedRecipes(func(r *model.Recipe) bool {
		if search != "" &&
			!strings.Contains(strings.ToLower(r.Title), search) &&
			!strings.Contains(strings.ToLower(r.Description), search) {
			return false
		}
		return filters.Category == "" || r.MainCategoryID == filters.Category
	}), nil
}

func (s *Store) GetRecipeByID(_ context.Context, id string) (*model.Recipe, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.recipes[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	r := copyRecipe(row.recipe)
	return &r, nil
}

func (s *Store) GetRecipeByTitle(_ context.Context, title string) (*model.Recipe, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, row := range s.recipes {
		if row.recipe.Title == title {
			r := copyRecipe(row.recipe)
			return &r, nil
		}
	}
	return nil, db.ErrNotFound
}

func (s *Store) ListOtherRecipes(_ context.Context, excludeID string, limit int) ([]model.Recipe, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	others := s.sortedRecipes(func(r *model.Recipe) bool { return r.ID != excludeID })
	rand.Shuffle(len(others), func(i, j int) { others[i], others[j] = others[j], others[i] })
	if len(others) > limit {
		others = others[:limit]
	}
	return others, nil
}

func (s *Store) ListRecipesByCategory(_ context.Context, categoryID string) ([]model.Recipe, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedRecipes(func(r *model.Recipe) bool { return r.MainCategoryID == categoryID }), nil
}

func (s *Store) CreateRecipe(_ context.Context, r *model.Recipe) (*model.Recipe, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range s.recipes {
		if row.recipe.Title == r.Title {
			return nil, duplicate("recipes_title_key")
		}
	}
	recipe := copyRecipe(*r)
	if recipe.SecondaryCategoryIDs == nil {
		recipe.SecondaryCategoryIDs = []string{}
	}
	if recipe.Directions == nil {
		recipe.Directions = []model.DirectionStep{}
	}
	recipe.PublishDate = s.now()
	recipe.CreatedAt = recipe.PublishDate
	recipe.UpdatedAt = recipe.PublishDate
	s.recipes[recipe.ID] = &recipeRow{seq: s.next(), recipe: recipe}

	out := copyRecipe(recipe)
	return &out, nil
}

func (s *Store) UpdateRecipe(_ context.Context, id string, upd model.RecipeUpdate) (*model.Recipe, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.recipes[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	if upd.Title != nil {
		for otherID, other := range s.recipes {
			if otherID != id && other.recipe.Title == *upd.Title {
				return nil, duplicate("recipes_title_key")
			}
		}
	}

	r := copyRecipe(row.recipe)
	if upd.Title != nil {
		r.Title = *upd.Title
	}
	if upd.Description != nil {
		r.Description = *upd.Description
	}
	if upd.MainCategoryID != nil {
		r.MainCategoryID = *upd.MainCategoryID
	}
	if upd.SecondaryCategoryIDs != nil {
		r.SecondaryCategoryIDs = slices.Clone(upd.SecondaryCategoryIDs)
	}
	if upd.PrepTime != nil {
		r.PrepTime = *upd.PrepTime
	}
	if upd.CookTime != nil {
		r.CookTime = *upd.CookTime
	}
	if upd.IsVegan != nil {
		r.IsVegan = *upd.IsVegan
	}
	if upd.MainImage != nil {
		r.MainImage = *upd.MainImage
	}
	if upd.Nutrition != nil {
		n := *upd.Nutrition
		r.Nutrition = &n
	}
	if upd.Ingredients != nil {
		r.Ingredients = copyIngredients(*upd.Ingredients)
	}
	if upd.Directions != nil {
		r.Directions = copySteps(upd.Directions)
	}
	r.UpdatedAt = s.now()
	row.recipe = r

	out := copyRecipe(r)
	return &out, nil
}

func (s *Store) DeleteRecipe(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.recipes[id]; !ok {
		return db.ErrNotFound
	}
	delete(s.recipes, id)
	return nil
}

func (s *Store) DeleteRecipesByCategory(_ context.Context, categoryID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, row := range s.recipes {
		if row.recipe.MainCategoryID == categoryID {
			delete(s.recipes, id)
			n++
		}
	}
	return n, nil
}

func (s *Store) PullSecondaryCategory(_ context.Context, categoryID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, row := range s.recipes {
		before := len(row.recipe.SecondaryCategoryIDs)
		row.recipe.SecondaryCategoryIDs = slices.DeleteFunc(row.recipe.SecondaryCategoryIDs, func(id string) bool {
			return id == categoryID
		})
		if len(row.recipe.SecondaryCategoryIDs) != before {
			row.recipe.UpdatedAt = s.now()
			n++
		}
	}
	return n, nil
}

func copyUser(u model.User) model.User {
	u.Avatar = cloneSlot(u.Avatar)
	return u
}

func cloneSlot(s *model.ImageSlot) *model.ImageSlot {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

func copyIngredients(in model.Ingredients) model.Ingredients {
	out := model.Ingredients{Sections: make([]model.IngredientSection, len(in.Sections))}
	for i, sec := range in.Sections {
		out.Sections[i] = model.IngredientSection{Title: sec.Title, Items: slices.Clone(sec.Items)}
	}
	return out
}

func copySteps(in []model.DirectionStep) []model.DirectionStep {
	if in == nil {
		return nil
	}
	out := make([]model.DirectionStep, len(in))
	for i, step := range in {
		step.Image = cloneSlot(step.Image)
		out[i] = step
	}
	return out
}

func copyRecipe(r model.Recipe) model.Recipe {
	r.SecondaryCategoryIDs = slices.Clone(r.SecondaryCategoryIDs)
	if r.Nutrition != nil {
		n := *r.Nutrition
		r.Nutrition = &n
	}
	r.Ingredients = copyIngredients(r.Ingredients)
	r.Directions = copySteps(r.Directions)
	r.MainCategory = nil
	r.SecondaryCategories = nil
	r.Author = nil
	return r
}
