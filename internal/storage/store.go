package storage

import (
	"context"
	"errors"
	"time"
)

type Store interface {
	// users
	CreateUser(ctx context.Context, username, email, passwordHash, role string) (*User, error)
	GetUserByID(ctx context.Context, id int64) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	ListUsers(ctx context.Context) ([]*User, error)
	ChangeUserPassword(ctx context.Context, userID int64, newHash string) error
	DeleteUser(ctx context.Context, userID int64) error

	// blogs
	CreateBlog(ctx context.Context, b *Blog) (*Blog, error)
	GetBlogByID(ctx context.Context, id int64) (*Blog, error)
	ListBlogs(ctx context.Context, f BlogFilter) ([]*Blog, error)
	UpdateBlog(ctx context.Context, b *Blog) (*Blog, error)
	DeleteBlog(ctx context.Context, id int64) error

	// services
	CreateService(ctx context.Context, s *Service) (*Service, error)
	GetServiceByID(ctx context.Context, id int64) (*Service, error)
	ListServices(ctx context.Context, f ServiceFilter) ([]*Service, error)
	UpdateService(ctx context.Context, s *Service) (*Service, error)
	DeleteService(ctx context.Context, id int64) error

	// service reviews
	CreateServiceReview(ctx context.Context, r *Review) (*Review, error)
	ListServiceReviews(ctx context.Context, serviceID int64) ([]*Review, error)

	// printings
	CreatePrinting(ctx context.Context, p *Printing) (*Printing, error)
	GetPrintingByID(ctx context.Context, id int64) (*Printing, error)
	ListPrintings(ctx context.Context, f PrintingFilter) ([]*Printing, error)
	CountPrintings(ctx context.Context, f PrintingFilter) (int64, error)
	UpdatePrinting(ctx context.Context, p *Printing) (*Printing, error)
	DeletePrinting(ctx context.Context, id int64) error

	// printing image links
	AddPrintingImage(ctx context.Context, printingID, imageID int64, ord int) error
	ListPrintingImages(ctx context.Context, printingID int64) ([]*Image, error)
	CountPrintingImages(ctx context.Context, printingID int64) (int64, error)
	ClearPrintingImages(ctx context.Context, printingID int64) ([]*Image, error)

	// images
	CreateImage(ctx context.Context, img *Image) (*Image, error)
	GetImageByID(ctx context.Context, id int64) (*Image, error)
	ListImages(ctx context.Context, category string) ([]*Image, error)
	UpdateImage(ctx context.Context, id int64, altText *string, visible *bool) (*Image, error)
	DeleteImage(ctx context.Context, id int64) error

	// banners
	CreateBanner(ctx context.Context, b *Banner) (*Banner, error)
	GetBannerByID(ctx context.Context, id int64) (*Banner, error)
	ListBanners(ctx context.Context, activeOnly bool) ([]*Banner, error)
	UpdateBanner(ctx context.Context, b *Banner) (*Banner, error)
	DeleteBanner(ctx context.Context, id int64) error

	Close() error
}

var (
	ErrNotFound        = errors.New("record not found")
	ErrUniqueViolation = errors.New("unique constraint violation")
	ErrCheckViolation  = errors.New("check constraint violation")
	ErrFKViolation     = errors.New("foreign key violation")
)

type User struct {
	ID           int64      `db:"id" json:"id"`
	Username     string     `db:"username" json:"username"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	Role         string     `db:"role" json:"role"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	DeletedAt    *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
}

// Blog has no slug column; its public identifier is always derived from
// Title at request time.
type Blog struct {
	ID        int64      `db:"id" json:"id"`
	Title     string     `db:"title" json:"title"`
	Content   string     `db:"content" json:"content"`
	Category  string     `db:"category" json:"category"`
	IsActive  bool       `db:"is_active" json:"is_active"`
	CreatedBy int64      `db:"created_by" json:"created_by"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}

type BlogFilter struct {
	IsActive *bool
	Category string
	Offset   int64
	Limit    int64
}

type Service struct {
	ID          int64      `db:"id" json:"id"`
	Name        string     `db:"name" json:"name"`
	Description string     `db:"description" json:"description"`
	Content     string     `db:"content" json:"content"`
	Category    string     `db:"category" json:"category"`
	Featured    bool       `db:"featured" json:"featured"`
	IsActive    bool       `db:"is_active" json:"is_active"`
	ImageID     *int64     `db:"image_id" json:"image_id,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}

// Review is a visitor rating on a service. AuthorName is nil when the
// reviewer chose to stay anonymous.
type Review struct {
	ID          int64     `db:"id" json:"id"`
	ServiceID   int64     `db:"service_id" json:"service_id"`
	AuthorName  *string   `db:"author_name" json:"author_name,omitempty"`
	IsAnonymous bool      `db:"is_anonymous" json:"is_anonymous"`
	Rating      int       `db:"rating" json:"rating"`
	Content     string    `db:"content" json:"content"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

type ServiceFilter struct {
	IsActive *bool
	Featured *bool
	Category string
	Offset   int64
	Limit    int64
}

type Printing struct {
	ID        int64      `db:"id" json:"id"`
	Title     string     `db:"title" json:"title"`
	Time      string     `db:"time" json:"time"` // production estimate, e.g. "1-2 days"
	Content   string     `db:"content" json:"content"`
	IsVisible bool       `db:"is_visible" json:"is_visible"`
	CreatedBy int64      `db:"created_by" json:"created_by"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}

type PrintingFilter struct {
	IsVisible *bool
	Search    string
	Offset    int64
	Limit     int64
}

// Image is the persisted descriptor for one uploaded file. A row is written
// exactly once per successful upload; only alt_text and is_visible may change
// afterwards.
type Image struct {
	ID        int64     `db:"id" json:"id"`
	Filename  string    `db:"filename" json:"filename"`
	FilePath  string    `db:"file_path" json:"file_path"`
	URL       string    `db:"url" json:"url"`
	AltText   *string   `db:"alt_text" json:"alt_text,omitempty"`
	FileSize  int64     `db:"file_size" json:"file_size"`
	MimeType  string    `db:"mime_type" json:"mime_type"`
	Width     *int      `db:"width" json:"width,omitempty"`
	Height    *int      `db:"height" json:"height,omitempty"`
	IsVisible bool      `db:"is_visible" json:"is_visible"`
	Category  string    `db:"category" json:"category"` // "banner" | "printing" | "service"
	CreatedBy int64     `db:"uploaded_by" json:"uploaded_by"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type Banner struct {
	ID          int64     `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Description *string   `db:"description" json:"description,omitempty"`
	LinkURL     *string   `db:"link_url" json:"link_url,omitempty"`
	ImageID     int64     `db:"image_id" json:"image_id"`
	IsActive    bool      `db:"is_active" json:"is_active"`
	Ord         int       `db:"ord" json:"order"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
