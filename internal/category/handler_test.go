package category_test

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"

	"github.com/frahmantamala/finance-ops/internal/category"
	categoryPostgres "github.com/frahmantamala/finance-ops/internal/category/postgres"
	categoryDatamodel "github.com/frahmantamala/finance-ops/internal/core/datamodel/category"
	"github.com/frahmantamala/finance-ops/internal/transport"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var _ = Describe("Category Handler Integration", func() {
	var (
		db      *gorm.DB
		handler *category.Handler
		slogger *slog.Logger
	)

	newHandler := func() {
		repo := categoryPostgres.NewCategoryRepository(db)
		service := category.NewService(repo, slogger)
		handler = category.NewHandler(&transport.BaseHandler{Logger: slogger}, service)
	}

	BeforeEach(func() {
		var err error
		slogger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		Expect(err).NotTo(HaveOccurred())
	})

	Context("with provisioned categories", func() {
		BeforeEach(func() {
			Expect(db.AutoMigrate(&categoryDatamodel.ExpenseCategory{})).To(Succeed())
			newHandler()

			Expect(db.Create(&categoryDatamodel.ExpenseCategory{Name: "meals", Description: "Meals", ApprovalThreshold: 5000, IsActive: true}).Error).To(Succeed())
			Expect(db.Create(&categoryDatamodel.ExpenseCategory{Name: "travel", Description: "Business travel", IsActive: true}).Error).To(Succeed())
			Expect(db.Create(&categoryDatamodel.ExpenseCategory{Name: "retired", Description: "Retired", IsActive: true}).Error).To(Succeed())
			Expect(db.Model(&categoryDatamodel.ExpenseCategory{}).Where("name = ?", "retired").Update("is_active", false).Error).To(Succeed())
		})

		It("lists active categories", func() {
			req := httptest.NewRequest(http.MethodGet, "/categories", nil)
			w := httptest.NewRecorder()

			handler.GetCategories(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Header().Get("Content-Type")).To(ContainSubstring("application/json"))

			var response category.CategoriesResponse
			Expect(json.NewDecoder(w.Body).Decode(&response)).To(Succeed())

			names := make([]string, len(response.Categories))
			for i, cat := range response.Categories {
				names[i] = cat.Name
				Expect(cat.RequiresApproval).To(BeTrue())
			}
			Expect(names).To(ConsistOf("meals", "travel"))
		})
	})

	Context("before the categories table exists", func() {
		BeforeEach(newHandler)

		It("responds with an empty list instead of failing", func() {
			req := httptest.NewRequest(http.MethodGet, "/categories", nil)
			w := httptest.NewRecorder()

			handler.GetCategories(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))
			var response category.CategoriesResponse
			Expect(json.NewDecoder(w.Body).Decode(&response)).To(Succeed())
			Expect(response.Categories).To(BeEmpty())
		})
	})
})
