package services

import (
	"encoding/json"
	"errors"

	"mesero/internal/domain"
	"mesero/internal/repos"

	"github.com/google/uuid"
)

var ErrBadExtras = errors.New("extras must be a JSON list of {name,price}")

type CatalogService struct {
	Prods *repos.ProductRepo
}

func NewCatalogService(prods *repos.ProductRepo) *CatalogService {
	return &CatalogService{Prods: prods}
}

// MenuSection pairs a category with its available products.
type MenuSection struct {
	Category string
	Products []domain.Product
}

// Menu returns the customer-facing menu: available products grouped by the
// fixed category order, empty categories skipped.
func (s *CatalogService) Menu() ([]MenuSection, error) {
	var out []MenuSection
	for _, cat := range domain.Categories {
		prods, err := s.Prods.ListByCategory(cat, true)
		if err != nil {
			return nil, err
		}
		if len(prods) == 0 {
			continue
		}
		out = append(out, MenuSection{Category: cat, Products: prods})
	}
	return out, nil
}

func (s *CatalogService) Get(id string) (domain.Product, error) {
	return s.Prods.Get(id)
}

func (s *CatalogService) Search(q string) ([]domain.Product, error) {
	return s.Prods.Search(q, true)
}

func (s *CatalogService) ListAll() ([]domain.Product, error) {
	return s.Prods.ListAll()
}

func (s *CatalogService) Create(p domain.Product) (domain.Product, error) {
	if err := checkExtras(p.ExtrasJSON); err != nil {
		return domain.Product{}, err
	}
	p.ID = uuid.NewString()
	if err := s.Prods.Create(p); err != nil {
		return domain.Product{}, err
	}
	return p, nil
}

func (s *CatalogService) Update(p domain.Product) error {
	if err := checkExtras(p.ExtrasJSON); err != nil {
		return err
	}
	return s.Prods.Update(p)
}

func (s *CatalogService) SetAvailability(id string, available bool) error {
	return s.Prods.SetAvailability(id, available)
}

func (s *CatalogService) Delete(id string) error {
	return s.Prods.Delete(id)
}

func checkExtras(raw string) error {
	if raw == "" {
		return nil
	}
	var extras []domain.Extra
	if err := json.Unmarshal([]byte(raw), &extras); err != nil {
		return ErrBadExtras
	}
	for _, e := range extras {
		if e.Name == "" || e.Price < 0 {
			return ErrBadExtras
		}
	}
	return nil
}
