package db

import (
	"time"

	"edm-backend/internal/audit"
	"edm-backend/internal/comment"
	"edm-backend/internal/document"
	"edm-backend/internal/folder"
	"edm-backend/internal/permission"
	"edm-backend/internal/tag"
	"edm-backend/internal/user"
	"edm-backend/internal/workflow"
	"edm-backend/pkg/logger"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// One explicit grant per user per resource. Folder and document grants live
// in the same table with one side NULL, which a plain unique index treats
// as distinct rows, so the index collapses NULLs with COALESCE.
const permissionUniqueIndex = `
CREATE UNIQUE INDEX IF NOT EXISTS idx_permissions_user_resource
ON permissions (
	user_id,
	COALESCE(folder_id, '00000000-0000-0000-0000-000000000000'::uuid),
	COALESCE(document_id, '00000000-0000-0000-0000-000000000000'::uuid)
)`

// Migrate runs database migrations
func Migrate() error {
	err := AppDb.AutoMigrate(
		&user.User{},
		&user.PasswordResetToken{},
		&folder.Folder{},
		&document.Document{},
		&document.DocumentVersion{},
		&permission.Permission{},
		&tag.Tag{},
		&tag.DocumentTag{},
		&comment.Comment{},
		&workflow.Workflow{},
		&workflow.WorkflowStep{},
		&audit.AuditLog{},
	)
	if err != nil {
		return err
	}

	if err := AppDb.Exec(permissionUniqueIndex).Error; err != nil {
		return err
	}

	logger.L.Info("database schema migrated")
	return nil
}

// SeedData creates the initial admin user, the system folder tree and the
// default tags. It is a no-op when any user already exists.
func SeedData() error {
	var userCount int64
	if err := AppDb.Model(&user.User{}).Count(&userCount).Error; err != nil {
		return err
	}
	if userCount > 0 {
		return nil
	}

	return AppDb.Transaction(func(tx *gorm.DB) error {
		passwordHash, err := bcrypt.GenerateFromPassword([]byte("Admin@123"), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		admin := &user.User{
			Username:     "admin",
			Email:        "admin@edm.local",
			FirstName:    "System",
			LastName:     "Administrator",
			PasswordHash: string(passwordHash),
			Role:         permission.RoleSystemAdmin,
			IsActive:     true,
		}
		if err := tx.Create(admin).Error; err != nil {
			return err
		}

		rootDescription := "Root folder for all documents"
		root := &folder.Folder{
			Name:           "Root",
			Description:    &rootDescription,
			Path:           "/Root/",
			Level:          0,
			IsSystemFolder: true,
			OwnerID:        admin.ID,
		}
		if err := tx.Create(root).Error; err != nil {
			return err
		}

		defaults := []struct {
			name        string
			description string
			system      bool
		}{
			{"General", "General documents", false},
			{"Projects", "Project documents", false},
			{"Archive", "Archived documents", false},
			{"Users", "Personal folders for users", true},
		}
		var usersFolder *folder.Folder
		for _, d := range defaults {
			description := d.description
			f := &folder.Folder{
				Name:           d.name,
				Description:    &description,
				ParentFolderID: &root.ID,
				Path:           root.Path + d.name + "/",
				Level:          1,
				IsSystemFolder: d.system,
				OwnerID:        admin.ID,
			}
			if err := tx.Create(f).Error; err != nil {
				return err
			}
			if d.name == "Users" {
				usersFolder = f
			}
		}

		tags := []tag.Tag{
			{Name: "Important", Color: "#EF4444"},
			{Name: "Draft", Color: "#F59E0B"},
			{Name: "Final", Color: "#10B981"},
		}
		if err := tx.Create(&tags).Error; err != nil {
			return err
		}

		personalDescription := "Personal folder for admin user"
		personal := &folder.Folder{
			Name:           admin.Username,
			Description:    &personalDescription,
			ParentFolderID: &usersFolder.ID,
			Path:           usersFolder.Path + admin.Username + "/",
			Level:          usersFolder.Level + 1,
			IsSystemFolder: false,
			OwnerID:        admin.ID,
		}
		if err := tx.Create(personal).Error; err != nil {
			return err
		}

		grant := &permission.Permission{
			UserID:    admin.ID,
			FolderID:  &personal.ID,
			Level:     permission.LevelAdmin,
			GrantedBy: "System",
			GrantedAt: time.Now().UTC(),
		}
		if err := tx.Create(grant).Error; err != nil {
			return err
		}

		logger.L.Info("seeded initial data", zap.String("admin", admin.Username))
		return nil
	})
}
