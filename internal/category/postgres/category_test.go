package postgres_test

import (
	"context"
	"log/slog"
	"os"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/frahmantamala/finance-ops/internal"
	"github.com/frahmantamala/finance-ops/internal/category"
	"github.com/frahmantamala/finance-ops/internal/category/postgres"
	"github.com/frahmantamala/finance-ops/internal/core/database"
	categoryDatamodel "github.com/frahmantamala/finance-ops/internal/core/datamodel/category"
)

func TestCategoryRepository(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Category Repository Suite")
}

var _ = Describe("CategoryRepository", func() {
	var (
		gdb     *gorm.DB
		repo    category.RepositoryAPI
		service *category.Service
		ctx     context.Context
	)

	BeforeEach(func() {
		var err error
		gdb, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		Expect(err).NotTo(HaveOccurred())

		sqlDB, err := gdb.DB()
		Expect(err).NotTo(HaveOccurred())
		sqlDB.SetMaxOpenConns(1)

		Expect(gdb.AutoMigrate(&categoryDatamodel.ExpenseCategory{})).To(Succeed())

		repo = postgres.NewCategoryRepository(gdb)
		service = category.NewService(repo, slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError})))
		ctx = context.Background()
	})

	It("creates a category and finds it by id and name", func() {
		yes := true
		created, err := service.Create(ctx, &category.Category{Name: "travel", RequiresApproval: &yes, ApprovalThreshold: 5_000_000, IsActive: true})
		Expect(err).NotTo(HaveOccurred())
		Expect(created.ID).NotTo(BeZero())
		Expect(created.CreatedAt).NotTo(BeZero())

		byID, err := repo.GetByID(ctx, created.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(byID.Name).To(Equal("travel"))

		byName, err := repo.GetByName(ctx, "travel")
		Expect(err).NotTo(HaveOccurred())
		Expect(byName.ID).To(Equal(created.ID))
		Expect(byName.ApprovalThreshold).To(Equal(int64(5_000_000)))
	})

	It("returns nil for unknown ids and names", func() {
		byID, err := repo.GetByID(ctx, 42)
		Expect(err).NotTo(HaveOccurred())
		Expect(byID).To(BeNil())

		byName, err := repo.GetByName(ctx, "nope")
		Expect(err).NotTo(HaveOccurred())
		Expect(byName).To(BeNil())
	})

	It("refuses a duplicate name", func() {
		_, err := service.Create(ctx, &category.Category{Name: "meals", IsActive: true})
		Expect(err).NotTo(HaveOccurred())

		_, err = service.Create(ctx, &category.Category{Name: "meals", IsActive: true})

		appErr, ok := internal.IsAppError(err)
		Expect(ok).To(BeTrue())
		Expect(appErr.Code).To(Equal(internal.ErrCodeCategoryExists))
	})

	It("creates inside a surrounding transaction", func() {
		err := database.NewTransactor(gdb).WithinTransaction(ctx, func(ctx context.Context) error {
			if _, err := service.Create(ctx, &category.Category{Name: "office", IsActive: true}); err != nil {
				return err
			}
			return gorm.ErrInvalidTransaction
		})
		Expect(err).To(MatchError(gorm.ErrInvalidTransaction))

		found, err := repo.GetByName(ctx, "office")
		Expect(err).NotTo(HaveOccurred())
		Expect(found).To(BeNil())
	})

	It("lists categories by name", func() {
		for _, name := range []string{"software", "meals", "travel"} {
			_, err := service.Create(ctx, &category.Category{Name: name, IsActive: true})
			Expect(err).NotTo(HaveOccurred())
		}

		rows, err := repo.GetAll(ctx)

		Expect(err).NotTo(HaveOccurred())
		Expect(rows).To(HaveLen(3))
		Expect(rows[0].Name).To(Equal("meals"))
		Expect(rows[2].Name).To(Equal("travel"))
	})
})
