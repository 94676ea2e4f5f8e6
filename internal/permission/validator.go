package permission

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterValidators hooks the permission level check into gin's binding
// validator. Call once at startup.
func RegisterValidators() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("permlevel", func(fl validator.FieldLevel) bool {
			_, ok := ParseLevel(fl.Field().String())
			return ok
		})
	}
}
