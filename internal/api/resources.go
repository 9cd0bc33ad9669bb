package api

import (
	"net/http"

	"marketnet/internal/models"

	"github.com/gin-gonic/gin"
)

// Permission is the access policy of a route
type Permission int

const (
	// inherit takes the enclosing resource's permission
	inherit Permission = iota
	AllowAny
	Authenticated
	AdminOrReadOnly
	AdminOnly
)

func (p Permission) String() string {
	switch p {
	case AllowAny:
		return "allow_any"
	case Authenticated:
		return "authenticated"
	case AdminOrReadOnly:
		return "admin_or_read_only"
	case AdminOnly:
		return "admin_only"
	}
	return "inherit"
}

type route struct {
	method     string
	path       string
	handler    gin.HandlerFunc
	permission Permission
}

// resource is one entry of the API's route table. The table is built once
// at startup and never changes afterwards.
type resource struct {
	name       string
	prefix     string
	permission Permission
	routes     []route
	nested     []resource
}

func (r resource) mount(parent *gin.RouterGroup, inherited Permission) {
	perm := r.permission
	if perm == inherit {
		perm = inherited
	}

	group := parent.Group(r.prefix)
	for _, rt := range r.routes {
		rp := rt.permission
		if rp == inherit {
			rp = perm
		}
		group.Handle(rt.method, rt.path, requirePermission(rp), rt.handler)
	}
	for _, child := range r.nested {
		child.mount(group, perm)
	}
}

// describe lists resource names and their URLs, nested ones included
func describe(resources []resource, base string) map[string]string {
	out := map[string]string{}
	var walk func(rs []resource, prefix string)
	walk = func(rs []resource, prefix string) {
		for _, r := range rs {
			out[r.name] = prefix + r.prefix
			walk(r.nested, prefix+r.prefix)
		}
	}
	walk(resources, base)
	return out
}

// resources is the route table of /api/v1
func (h *Handler) resources() []resource {
	return []resource{
		{
			name:       "users",
			prefix:     "/users",
			permission: AllowAny,
			routes: []route{
				{method: http.MethodPost, path: "", handler: h.register},
			},
		},
		{
			name:       "collections",
			prefix:     "/collections",
			permission: AdminOrReadOnly,
			routes: []route{
				{method: http.MethodGet, path: "", handler: h.listCollections},
				{method: http.MethodPost, path: "", handler: h.createCollection},
				{method: http.MethodGet, path: "/:id", handler: h.getCollection},
				{method: http.MethodPatch, path: "/:id", handler: h.updateCollection},
				{method: http.MethodPut, path: "/:id", handler: h.updateCollection},
				{method: http.MethodDelete, path: "/:id", handler: h.deleteCollection},
			},
			nested: []resource{
				{
					name:   "collection-tags",
					prefix: "/:id/tags",
					routes: tagRoutes(h, models.KindCollection),
				},
			},
		},
		{
			name:       "products",
			prefix:     "/products",
			permission: AdminOrReadOnly,
			routes: []route{
				{method: http.MethodGet, path: "", handler: h.listProducts},
				{method: http.MethodPost, path: "", handler: h.createProduct},
				{method: http.MethodGet, path: "/:id", handler: h.getProduct},
				{method: http.MethodPut, path: "/:id", handler: h.updateProduct},
				{method: http.MethodPatch, path: "/:id", handler: h.updateProduct},
				{method: http.MethodDelete, path: "/:id", handler: h.deleteProduct},
			},
			nested: []resource{
				{
					name:       "product-reviews",
					prefix:     "/:id/reviews",
					permission: AllowAny,
					routes: []route{
						{method: http.MethodGet, path: "", handler: h.listReviews},
						{method: http.MethodPost, path: "", handler: h.createReview},
					},
				},
				{
					name:   "product-promotions",
					prefix: "/:id/promotions",
					routes: []route{
						{method: http.MethodGet, path: "", handler: h.listProductPromotions},
						{method: http.MethodPut, path: "", handler: h.setProductPromotions},
					},
				},
				{
					name:   "product-tags",
					prefix: "/:id/tags",
					routes: tagRoutes(h, models.KindProduct),
				},
			},
		},
		{
			name:       "promotions",
			prefix:     "/promotions",
			permission: AdminOrReadOnly,
			routes: []route{
				{method: http.MethodGet, path: "", handler: h.listPromotions},
				{method: http.MethodPost, path: "", handler: h.createPromotion},
			},
		},
		{
			name:       "tags",
			prefix:     "/tags",
			permission: AdminOrReadOnly,
			routes: []route{
				{method: http.MethodGet, path: "", handler: h.listTags},
				{method: http.MethodPost, path: "", handler: h.createTag},
			},
		},
		{
			name:       "carts",
			prefix:     "/carts",
			permission: AllowAny,
			routes: []route{
				{method: http.MethodPost, path: "", handler: h.createCart},
				{method: http.MethodGet, path: "/:id", handler: h.getCart},
				{method: http.MethodDelete, path: "/:id", handler: h.deleteCart},
			},
			nested: []resource{
				{
					name:   "cart-items",
					prefix: "/:id/items",
					routes: []route{
						{method: http.MethodGet, path: "", handler: h.listCartItems},
						{method: http.MethodPost, path: "", handler: h.addCartItem},
						{method: http.MethodGet, path: "/:item_id", handler: h.getCartItem},
						{method: http.MethodPatch, path: "/:item_id", handler: h.updateCartItem},
						{method: http.MethodDelete, path: "/:item_id", handler: h.removeCartItem},
					},
				},
			},
		},
		{
			name:       "customers",
			prefix:     "/customers",
			permission: AdminOnly,
			routes: []route{
				{method: http.MethodGet, path: "", handler: h.listCustomers},
				{method: http.MethodGet, path: "/me", handler: h.getMe, permission: Authenticated},
				{method: http.MethodPut, path: "/me", handler: h.updateMe, permission: Authenticated},
				{method: http.MethodGet, path: "/:id", handler: h.getCustomer},
				{method: http.MethodDelete, path: "/:id", handler: h.deleteCustomer},
			},
		},
		{
			name:       "orders",
			prefix:     "/orders",
			permission: Authenticated,
			routes: []route{
				{method: http.MethodGet, path: "", handler: h.listOrders},
				{method: http.MethodPost, path: "", handler: h.placeOrder},
				{method: http.MethodGet, path: "/:id", handler: h.getOrder},
				{method: http.MethodPatch, path: "/:id", handler: h.updateOrder, permission: AdminOnly},
			},
		},
	}
}

func tagRoutes(h *Handler, kind models.TaggableKind) []route {
	return []route{
		{method: http.MethodGet, path: "", handler: h.listObjectTags(kind)},
		{method: http.MethodPost, path: "", handler: h.tagObject(kind)},
		{method: http.MethodDelete, path: "/:tag_id", handler: h.untagObject(kind)},
	}
}
