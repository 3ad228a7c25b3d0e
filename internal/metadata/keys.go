package metadata

// Top-level dictionary keys.
const (
	KeyTIFF        = "{TIFF}"
	KeyExif        = "{Exif}"
	KeyGPS         = "{GPS}"
	KeyMPF         = "{MPF}"
	KeyHEIF        = "{HEIF}"
	KeyGroups      = "Groups"
	KeyHasAlpha    = "HasAlpha"
	KeyPixelWidth  = "PixelWidth"
	KeyPixelHeight = "PixelHeight"
	// KeyExifBlock holds the TIFF-structured Exif payload of a JPEG source
	// as a []byte, so fields the dictionaries do not model survive encoding.
	KeyExifBlock = "ExifBlock"
)

// {TIFF} keys.
const (
	TIFFMake     = "Make"
	TIFFModel    = "Model"
	TIFFDateTime = "DateTime"
)

// {Exif} keys.
const (
	ExifDateTimeOriginal  = "DateTimeOriginal"
	ExifDateTimeDigitized = "DateTimeDigitized"
	ExifUserComment       = "UserComment"
)

// {MPF} keys.
const (
	MPFPresent        = "Present"
	MPFNumberOfImages = "NumberOfImages"
)

// Groups keys.
const (
	GroupIndex               = "GroupIndex"
	GroupType                = "GroupType"
	GroupTypeStereoPair      = "StereoPair"
	GroupImageIsLeft         = "IsLeftImage"
	GroupImageIsRight        = "IsRightImage"
	GroupDisparityAdjustment = "DisparityAdjustment"
)

// {HEIF} camera keys.
const (
	CameraModel                      = "CameraModel"
	CameraModelIntrinsics            = "Intrinsics"
	CameraModelType                  = "ModelType"
	CameraModelTypeSimplifiedPinhole = "SimplifiedPinhole"

	CameraExtrinsics             = "CameraExtrinsics"
	ExtrinsicsCoordinateSystemID = "CoordinateSystemID"
	ExtrinsicsPosition           = "Position"
	ExtrinsicsRotation           = "Rotation"
)
