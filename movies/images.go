package movies

// ImageType selects between the two catalog image kinds.
type ImageType string

const (
	ImagePoster   ImageType = "poster"
	ImageBackdrop ImageType = "backdrop"
)

// ImageSize is a named size within an image type's ladder.
type ImageSize string

const (
	SizeSmall    ImageSize = "small"
	SizeMedium   ImageSize = "medium"
	SizeLarge    ImageSize = "large"
	SizeOriginal ImageSize = "original"
)

// DefaultImageBaseURL is the catalog's image CDN root.
const DefaultImageBaseURL = "https://image.tmdb.org/t/p"

var imageSizes = map[ImageType]map[ImageSize]string{
	ImagePoster: {
		SizeSmall:    "w92",
		SizeMedium:   "w185",
		SizeLarge:    "w342",
		SizeOriginal: "original",
	},
	ImageBackdrop: {
		SizeSmall:    "w300",
		SizeMedium:   "w780",
		SizeLarge:    "w1280",
		SizeOriginal: "original",
	},
}

// ImageURL builds the CDN URL for an image path as returned by the catalog
// (a leading-slash fragment). An empty path yields an empty URL.
func ImageURL(path string, imageType ImageType, size ImageSize) string {
	if path == "" {
		return ""
	}

	sizes, ok := imageSizes[imageType]
	if !ok {
		sizes = imageSizes[ImagePoster]
	}
	sizeValue, ok := sizes[size]
	if !ok {
		sizeValue = sizes[SizeMedium]
	}

	return DefaultImageBaseURL + "/" + sizeValue + path
}

// PlaceholderImage returns a generic placeholder for a missing image.
func PlaceholderImage(imageType ImageType) string {
	if imageType == ImageBackdrop {
		return "https://placehold.co/500x281/png"
	}
	return "https://placehold.co/185x278/png"
}
