package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/tiffin/internal/models"
	"github.com/example/tiffin/internal/utils"
)

// CatalogHandler manages partner restaurants and their menus.
type CatalogHandler struct {
	db *gorm.DB
}

// NewCatalogHandler constructs CatalogHandler.
func NewCatalogHandler(db *gorm.DB) *CatalogHandler {
	return &CatalogHandler{db: db}
}

// ListRestaurants returns paginated restaurants.
func (h *CatalogHandler) ListRestaurants(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	query := h.db.Model(&models.Restaurant{})

	if search := c.Query("search"); search != "" {
		query = query.Where("name ILIKE ? OR address ILIKE ?", "%"+search+"%", "%"+search+"%")
	}
	if c.Query("active") == "true" {
		query = query.Where("is_active = ?", true)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var restaurants []models.Restaurant
	if err := query.Limit(pg.Limit).Offset(pg.Offset).Order("created_at desc").
		Find(&restaurants).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    restaurants,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
	})
}

// GetRestaurant returns a single restaurant with its menu.
func (h *CatalogHandler) GetRestaurant(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var restaurant models.Restaurant
	if err := h.db.Preload("Foods").First(&restaurant, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "restaurant not found")
		}
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": restaurant})
}

// CreateRestaurant persists a new partner restaurant.
func (h *CatalogHandler) CreateRestaurant(c *fiber.Ctx) error {
	var payload models.Restaurant
	if err := c.BodyParser(&payload); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.db.Create(&payload).Error; err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": payload})
}

// UpdateRestaurant updates an existing restaurant.
func (h *CatalogHandler) UpdateRestaurant(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var restaurant models.Restaurant
	if err := h.db.First(&restaurant, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "restaurant not found")
		}
		return err
	}

	var payload models.Restaurant
	if err := c.BodyParser(&payload); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	payload.ID = restaurant.ID
	if err := h.db.Model(&restaurant).Updates(payload).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": restaurant})
}

// DeleteRestaurant removes a restaurant by ID.
func (h *CatalogHandler) DeleteRestaurant(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	if err := h.db.Delete(&models.Restaurant{}, "id = ?", id).Error; err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// ListFoods returns one restaurant's menu.
func (h *CatalogHandler) ListFoods(c *fiber.Ctx) error {
	restaurantID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	pg := utils.ParsePagination(c)
	query := h.db.Model(&models.Food{}).Where("restaurant_id = ?", restaurantID)

	if c.Query("available") == "true" {
		query = query.Where("is_available = ?", true)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var foods []models.Food
	if err := query.Limit(pg.Limit).Offset(pg.Offset).Order("name asc").
		Find(&foods).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    foods,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
	})
}

// CreateFood adds a dish to a restaurant's menu.
func (h *CatalogHandler) CreateFood(c *fiber.Ctx) error {
	restaurantID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var payload models.Food
	if err := c.BodyParser(&payload); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	payload.RestaurantID = restaurantID

	if err := h.db.Create(&payload).Error; err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": payload})
}

// UpdateFood updates an existing dish.
func (h *CatalogHandler) UpdateFood(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("foodId"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var food models.Food
	if err := h.db.First(&food, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "food not found")
		}
		return err
	}

	var payload models.Food
	if err := c.BodyParser(&payload); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	payload.ID = food.ID
	payload.RestaurantID = food.RestaurantID
	if err := h.db.Model(&food).Updates(payload).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": food})
}

// DeleteFood removes a dish by ID.
func (h *CatalogHandler) DeleteFood(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("foodId"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	if err := h.db.Delete(&models.Food{}, "id = ?", id).Error; err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}
