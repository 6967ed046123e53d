package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	productdomain "github.com/xtreino/platform/internal/product/domain"
)

func (s *Server) ListProducts(c *gin.Context) {
	activeOnly := c.Query("all") != "1"

	products, err := s.productSvc.List(c.Request.Context(), activeOnly)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"products": products})
}

func (s *Server) GetProductByID(c *gin.Context) {
	product, err := s.productSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, product)
}

func (s *Server) CreateProduct(c *gin.Context) {
	var req productdomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	product, err := s.productSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, product)
}
