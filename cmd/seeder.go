package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/frahmantamala/school-core/internal/auth"
	authPostgres "github.com/frahmantamala/school-core/internal/auth/postgres"
	projectDatamodel "github.com/frahmantamala/school-core/internal/core/datamodel/project"
	rbacDatamodel "github.com/frahmantamala/school-core/internal/core/datamodel/rbac"
	schoolDatamodel "github.com/frahmantamala/school-core/internal/core/datamodel/school"
	userDatamodel "github.com/frahmantamala/school-core/internal/core/datamodel/user"
	"github.com/frahmantamala/school-core/internal/rbac"
	rbacPostgres "github.com/frahmantamala/school-core/internal/rbac/postgres"
	"github.com/frahmantamala/school-core/pkg/logger"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var seedPassword string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the permission catalog plus a demo project with an administrator, a teacher and a small class for development and testing.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig(configPath)
		if err != nil {
			return err
		}
		lg := logger.Init(cfg.Env, cfg.Observability.Logging.Level, cfg.Observability.Logging.Format)

		db, err := initDB(cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close()

		gormDB, err := initGorm(db)
		if err != nil {
			return err
		}

		return seedDemoData(cmd.Context(), gormDB, seedPassword, cfg.Security.BCryptCost, lg)
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedPassword, "password", "password", "password for the seeded users")
}

const (
	demoProjectCode = "demo"
	adminEmail      = "admin@school.test"
	teacherEmail    = "teacher@school.test"
)

var teacherKeys = []string{rbac.PermAttendanceUpload, rbac.PermAttendanceView, rbac.PermExamView}

// seedDemoData is idempotent: rows that already exist are left alone.
func seedDemoData(ctx context.Context, db *gorm.DB, password string, cost int, lg *slog.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}
	rbacRepo := rbacPostgres.NewRBACRepository(db)
	users := authPostgres.NewUserRepository(db)

	if err := rbac.NewService(rbacRepo, nil, nil, nil, lg).SeedCatalog(ctx); err != nil {
		return err
	}
	lg.Info("seeded permission catalog", "keys", len(rbac.DefaultCatalog))

	project := projectDatamodel.Project{Code: demoProjectCode}
	if err := db.WithContext(ctx).
		Where(projectDatamodel.Project{Code: demoProjectCode}).
		Attrs(projectDatamodel.Project{Name: "Demo School", Status: "active"}).
		FirstOrCreate(&project).Error; err != nil {
		return fmt.Errorf("seed project: %w", err)
	}

	hash, err := auth.HashPassword(password, cost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	admin := userDatamodel.User{Email: adminEmail, Name: "School Admin", PasswordHash: hash, IsActive: true, IsPlatformAdmin: true}
	if err := users.Create(ctx, &admin); err != nil {
		return fmt.Errorf("seed admin user: %w", err)
	}
	teacher := userDatamodel.User{Email: teacherEmail, Name: "Class Teacher", PasswordHash: hash, IsActive: true}
	if err := users.Create(ctx, &teacher); err != nil {
		return fmt.Errorf("seed teacher user: %w", err)
	}

	adminRole, err := ensureRole(ctx, rbacRepo, rbacDatamodel.Role{
		ProjectID: project.ID, Name: "Administrator", Description: "Full access to the project",
		IsProjectAdmin: true, CreatedBy: &admin.ID,
	}, nil)
	if err != nil {
		return err
	}
	teacherRole, err := ensureRole(ctx, rbacRepo, rbacDatamodel.Role{
		ProjectID: project.ID, Name: "Teacher", Description: "Uploads attendance and reads exam results",
		CreatedBy: &admin.ID,
	}, teacherKeys)
	if err != nil {
		return err
	}

	if err := ensureAssignment(ctx, rbacRepo, admin.ID, adminRole.ID, project.ID, admin.ID); err != nil {
		return err
	}
	if err := ensureAssignment(ctx, rbacRepo, teacher.ID, teacherRole.ID, project.ID, admin.ID); err != nil {
		return err
	}

	if err := seedClass(ctx, db, project.ID); err != nil {
		return err
	}

	lg.Info("seeded demo project",
		"project_id", project.ID,
		"project_code", project.Code,
		"admin", adminEmail,
		"teacher", teacherEmail)
	return nil
}

func ensureRole(ctx context.Context, repo rbac.RepositoryAPI, role rbacDatamodel.Role, keys []string) (*rbacDatamodel.Role, error) {
	existing, err := repo.GetRoleByName(ctx, role.ProjectID, role.Name)
	if err != nil {
		return nil, fmt.Errorf("lookup role %s: %w", role.Name, err)
	}
	if existing != nil {
		return existing, nil
	}

	perms, err := repo.PermissionsByName(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("lookup permissions: %w", err)
	}
	ids := make([]int64, len(perms))
	for i, p := range perms {
		ids[i] = p.ID
	}
	if err := repo.CreateRole(ctx, &role, ids); err != nil {
		return nil, fmt.Errorf("seed role %s: %w", role.Name, err)
	}
	return &role, nil
}

func ensureAssignment(ctx context.Context, repo rbac.RepositoryAPI, userID, roleID, projectID, assignedBy int64) error {
	exists, err := repo.AssignmentExists(ctx, userID, roleID, projectID)
	if err != nil {
		return fmt.Errorf("lookup assignment: %w", err)
	}
	if exists {
		return nil
	}
	return repo.Assign(ctx, &rbacDatamodel.UserRoleProject{
		UserID: userID, RoleID: roleID, ProjectID: projectID, AssignedBy: &assignedBy,
	})
}

func seedClass(ctx context.Context, db *gorm.DB, projectID int64) error {
	tx := db.WithContext(ctx)

	for _, name := range []string{"Mathematics", "Science", "English"} {
		s := schoolDatamodel.Subject{ProjectID: projectID, Name: name}
		if err := tx.Where(s).FirstOrCreate(&s).Error; err != nil {
			return fmt.Errorf("seed subject %s: %w", name, err)
		}
	}

	midterm := time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)
	for _, name := range []string{"Midterm", "Final"} {
		e := schoolDatamodel.Exam{ProjectID: projectID, Name: name}
		attrs := schoolDatamodel.Exam{}
		if name == "Midterm" {
			attrs.ExamDate = &midterm
		}
		if err := tx.Where(e).Attrs(attrs).FirstOrCreate(&e).Error; err != nil {
			return fmt.Errorf("seed exam %s: %w", name, err)
		}
	}

	students := []struct{ code, name string }{
		{"S001", "Alya Putri"},
		{"S002", "Budi Santoso"},
		{"S003", "Citra Lestari"},
	}
	for _, st := range students {
		s := schoolDatamodel.Student{ProjectID: projectID, StudentCode: st.code}
		if err := tx.Where(s).Attrs(schoolDatamodel.Student{Name: st.name}).FirstOrCreate(&s).Error; err != nil {
			return fmt.Errorf("seed student %s: %w", st.code, err)
		}
	}
	return nil
}
