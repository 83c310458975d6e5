package main

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/PaulBabatuyi/semx/internal/apperr"
	"github.com/PaulBabatuyi/semx/internal/service"
)

// abort converts err into a JSON error response. Internal errors are
// logged with their cause and reported with the generic message only.
func (s *Server) abort(c *gin.Context, err error) {
	e := apperr.From(err, "Something went wrong!")
	if e.Kind == apperr.KindInternal {
		s.logger.Error("request failed", "path", c.Request.URL.Path, "error", err)
	}
	c.AbortWithStatusJSON(e.Status(), gin.H{"error": e.Message})
}

// bind decodes a JSON body into dst. An empty body leaves dst zero so the
// service reports the missing fields.
func bind(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		return apperr.Validation("Invalid request body")
	}
	return nil
}

func (s *Server) index(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Welcome to the semX API",
		"health":  "/api/health",
	})
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": s.clock.Now().UTC().Format(time.RFC3339),
		"service":   "semX API",
	})
}

// register creates an account and signs the new user in.
func (s *Server) register(c *gin.Context) {
	var in service.RegisterInput
	if err := bind(c, &in); err != nil {
		s.abort(c, err)
		return
	}
	sess, err := s.svc.Auth.Register(c.Request.Context(), in)
	if err != nil {
		s.abort(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "User registered successfully", "user": sess.User, "token": sess.Token})
}

// login exchanges credentials for a session token.
func (s *Server) login(c *gin.Context) {
	var in service.LoginInput
	if err := bind(c, &in); err != nil {
		s.abort(c, err)
		return
	}
	sess, err := s.svc.Auth.Login(c.Request.Context(), in)
	if err != nil {
		s.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Login successful", "user": sess.User, "token": sess.Token})
}

func (s *Server) me(c *gin.Context) {
	user, err := s.svc.Auth.Me(c.Request.Context(), userID(c))
	if err != nil {
		s.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (s *Server) listListings(c *gin.Context) {
	listings, err := s.svc.Listings.List(c.Request.Context(), service.ListQuery{
		Category: c.Query("category"),
		MaxPrice: c.Query("maxPrice"),
		Limit:    c.Query("limit"),
	})
	if err != nil {
		s.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"listings": listings, "total": len(listings)})
}

func (s *Server) createListing(c *gin.Context) {
	var in service.CreateListingInput
	if err := bind(c, &in); err != nil {
		s.abort(c, err)
		return
	}
	listing, err := s.svc.Listings.Create(c.Request.Context(), userID(c), in)
	if err != nil {
		s.abort(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Listing created successfully", "listing": listing})
}

func (s *Server) myListings(c *gin.Context) {
	listings, err := s.svc.Listings.ListMine(c.Request.Context(), userID(c))
	if err != nil {
		s.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"listings": listings, "total": len(listings)})
}

func (s *Server) closeListing(c *gin.Context) {
	listing, err := s.svc.Listings.Close(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		s.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Listing deleted successfully", "listing": listing})
}

func (s *Server) requestDelivery(c *gin.Context) {
	var in service.RequestInput
	if err := bind(c, &in); err != nil {
		s.abort(c, err)
		return
	}
	delivery, err := s.svc.Deliveries.Request(c.Request.Context(), userID(c), in)
	if err != nil {
		s.abort(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Delivery request created", "delivery": delivery})
}

func (s *Server) myDeliveries(c *gin.Context) {
	deliveries, err := s.svc.Deliveries.ListMine(c.Request.Context(), userID(c))
	if err != nil {
		s.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deliveries": deliveries, "total": len(deliveries)})
}

func (s *Server) claimDelivery(c *gin.Context) {
	delivery, err := s.svc.Deliveries.Claim(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		s.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Delivery accepted", "delivery": delivery})
}

func (s *Server) conversations(c *gin.Context) {
	convs, err := s.svc.Chat.ListConversations(c.Request.Context(), userID(c))
	if err != nil {
		s.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversations": convs})
}

func (s *Server) startConversation(c *gin.Context) {
	var in service.StartInput
	if err := bind(c, &in); err != nil {
		s.abort(c, err)
		return
	}
	conv, created, err := s.svc.Chat.StartConversation(c.Request.Context(), userID(c), in)
	if err != nil {
		s.abort(c, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"conversation": conv})
}

func (s *Server) messages(c *gin.Context) {
	msgs, err := s.svc.Chat.GetMessages(c.Request.Context(), userID(c), c.Param("deliveryId"))
	if err != nil {
		s.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

func (s *Server) sendMessage(c *gin.Context) {
	var in service.SendInput
	if err := bind(c, &in); err != nil {
		s.abort(c, err)
		return
	}
	msg, err := s.svc.Chat.SendMessage(c.Request.Context(), userID(c), in)
	if err != nil {
		s.abort(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Message sent", "chatMessage": msg})
}

func (s *Server) profile(c *gin.Context) {
	p, err := s.svc.Profile.Get(c.Request.Context(), userID(c))
	if err != nil {
		s.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) setAvailability(c *gin.Context) {
	var in service.AvailabilityInput
	if err := bind(c, &in); err != nil {
		s.abort(c, err)
		return
	}
	available, err := s.svc.Availability.Set(c.Request.Context(), userID(c), in)
	if err != nil {
		s.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": service.AvailabilityMessage(available), "isAvailable": available})
}
