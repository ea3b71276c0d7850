package service

import (
	"github.com/dukerupert/balaguruva/internal/domain"
)

// Cart errors
var (
	ErrCartNotFound     = domain.ErrCartNotFound
	ErrCartItemNotFound = domain.ErrCartItemNotFound
	ErrCartNotYours     = domain.Errorf(domain.EFORBIDDEN, "", "Cart belongs to another user")
)

// Product errors
var (
	ErrProductNotFound = domain.Errorf(domain.ENOTFOUND, "", "Product not found")
)

// Order errors
var (
	ErrOrderNotFound          = domain.Errorf(domain.ENOTFOUND, "", "Order not found")
	ErrOrderNotYours          = domain.Errorf(domain.EFORBIDDEN, "", "Not authorized to access this order")
	ErrOrderReferenceTaken    = domain.Errorf(domain.ECONFLICT, "", "Order reference already in use")
	ErrInvalidTransition      = domain.Errorf(domain.ECONFLICT, "", "Order status cannot change that way")
	ErrOnlyCancelAllowed      = domain.Errorf(domain.EFORBIDDEN, "", "Customers can only cancel their own orders")
	ErrPaymentAlreadySettled  = domain.Errorf(domain.ECONFLICT, "", "Payment already settled")
	ErrPaymentUnavailable     = domain.Errorf(domain.EPAYMENT, "", "Payment could not be verified")
	ErrConcurrentModification = domain.Errorf(domain.ECONFLICT, "", "Order was modified concurrently, please retry")
)

// Account errors
var (
	ErrEmailTaken           = domain.Errorf(domain.ECONFLICT, "", "User already exists")
	ErrInvalidCredentials   = domain.Errorf(domain.EINVALID, "", "Invalid credentials")
	ErrExternalAccount      = domain.Errorf(domain.EINVALID, "", "This account uses Google login")
	ErrGoogleIDMismatch     = domain.Errorf(domain.EINVALID, "", "Google account does not match")
	ErrWrongPassword        = domain.Errorf(domain.EINVALID, "", "Current password is incorrect")
	ErrPasswordChangeDenied = domain.Errorf(domain.EINVALID, "", "Password change not available for Google accounts")
	ErrUserNotFound         = domain.Errorf(domain.ENOTFOUND, "", "User not found")
)

// Wishlist errors
var (
	ErrWishlistDuplicate = domain.Errorf(domain.EINVALID, "", "Item already in wishlist")
	ErrWishlistNotFound  = domain.Errorf(domain.ENOTFOUND, "", "Item not found in wishlist")
)
