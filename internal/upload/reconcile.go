package upload

import (
	"github.com/recipebox/backend/internal/apperror"
	"github.com/recipebox/backend/internal/model"
)

type Mode int

const (
	ModeCreate Mode = iota
	ModeUpdate
)

// Reconciler maps the files of a batch onto image slots. It never touches
// storage; the batch has already been written.
type Reconciler struct {
	publicURL string
}

func NewReconciler(publicURL string) *Reconciler {
	return &Reconciler{publicURL: publicURL}
}

// Reconciled is the recipe payload after file matching. MainImage is nil
// when an update carried no new main image.
type Reconciled struct {
	MainImage  *model.ImageSlot
	Directions []model.DirectionStep
}

// Reconcile attaches mainImage and the directionImage_<order> files to the
// recipe. Steps without a matching file end up with no image. Fields that
// match no slot are ignored.
func (r *Reconciler) Reconcile(batch Batch, directions []model.DirectionStep, mode Mode) (Reconciled, error) {
	main, err := r.Image(batch, FieldMainImage, mode, "Recipe image is required")
	if err != nil {
		return Reconciled{}, err
	}

	var steps []model.DirectionStep
	if directions != nil {
		steps = make([]model.DirectionStep, len(directions))
		for i, step := range directions {
			step.Image = nil
			if f, ok := batch[DirectionField(step.Order)]; ok {
				step.Image = r.slot(f)
			}
			steps[i] = step
		}
	}

	return Reconciled{MainImage: main, Directions: steps}, nil
}

// Image resolves a single-slot field. A missing file is a BadRequest with
// missingMessage on create and a nil slot on update.
func (r *Reconciler) Image(batch Batch, field string, mode Mode, missingMessage string) (*model.ImageSlot, error) {
	f, ok := batch[field]
	if !ok {
		if mode == ModeCreate {
			return nil, apperror.BadRequest(missingMessage)
		}
		return nil, nil
	}
	return r.slot(f), nil
}

// URL is the public address of a storage key.
func (r *Reconciler) URL(key string) string {
	return r.publicURL + "/" + key
}

func (r *Reconciler) slot(f StoredFile) *model.ImageSlot {
	return &model.ImageSlot{Name: f.Name, URL: r.URL(f.Key)}
}
